// Package jsonfile keeps the whole user collection in a single JSON document.
// Every read loads the document and every write replaces it, so it is meant
// for small deployments and local development.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/cinevault-be/internal/models"
	"github.com/hongminglow/cinevault-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

type document struct {
	Users []record `json:"users"`
}

// record is the on-disk shape; unlike models.User it persists the hash.
type record struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	PasswordHash string      `json:"passwordHash"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Store provides file-backed persistence for users.
type Store struct {
	path string

	// mu guards the document. AddUser holds the write lock across
	// load, uniqueness check and save.
	mu sync.RWMutex

	newID func() string
	now   func() time.Time
}

// NewUserStore prepares a store rooted at path, creating parent directories.
// A missing file is treated as an empty collection.
func NewUserStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		path:  path,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close is a no-op; it exists so callers can treat backends uniformly.
func (s *Store) Close() {}

// ListUsers returns a snapshot of every stored user.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(doc.Users))
	for _, r := range doc.Users {
		users = append(users, r.toModel())
	}
	return users, nil
}

// FindByUsername fetches a user by exact username.
func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}
	for _, r := range doc.Users {
		if r.Username == username {
			return r.toModel(), nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// AddUser appends a user unless the username or email is already taken.
func (s *Store) AddUser(_ context.Context, user models.User) (models.User, error) {
	if !user.Role.Valid() {
		return models.User{}, oops.Code("STORE_INVALID_ROLE").With("role", user.Role).Errorf("unknown role %q", user.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}
	for _, r := range doc.Users {
		if r.Username == user.Username || r.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}

	user.ID = s.newID()
	user.CreatedAt = s.now()
	doc.Users = append(doc.Users, fromModel(user))
	if err := s.save(doc); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) load() (document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return document{}, oops.Code("STORE_READ_FAILED").With("path", s.path).Wrap(err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, oops.Code("STORE_CORRUPT").With("path", s.path).Wrap(err)
	}
	for _, r := range doc.Users {
		if !r.Role.Valid() {
			return document{}, oops.Code("STORE_CORRUPT").
				With("path", s.path).
				With("username", r.Username).
				Errorf("unknown role %q", r.Role)
		}
	}
	return doc, nil
}

// save writes to a sibling temp file and renames it over the document so a
// concurrent reader sees either the old or the new version, never a partial one.
func (s *Store) save(doc document) error {
	if doc.Users == nil {
		doc.Users = []record{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oops.Code("STORE_ENCODE_FAILED").Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("path", s.path).Wrap(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return oops.Code("STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return oops.Code("STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("path", tmpName).Wrap(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("path", s.path).Wrap(err)
	}
	return nil
}

func fromModel(u models.User) record {
	return record{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

func (r record) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}
