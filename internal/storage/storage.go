package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/cinevault-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore is the credential store. Implementations own the uniqueness of
// username and email: AddUser must check both against the current persisted
// state atomically with the insert, and must assign ID and CreatedAt itself.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	AddUser(ctx context.Context, user models.User) (models.User, error)
}
