package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/hongminglow/cinevault-be/internal/models"
	"github.com/hongminglow/cinevault-be/internal/storage"
)

var (
	// ErrDuplicateAccount means the username or email is already registered.
	ErrDuplicateAccount = errors.New("username or email already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string
	User  models.PublicUser
}

// Service orchestrates registration and login on top of the credential
// store, the password hasher and the token manager.
type Service struct {
	users  storage.UserStore
	hasher PasswordHasher
	tokens *TokenManager
	logger *slog.Logger

	// dummyHash is compared against when the username is unknown.
	dummyHash string
}

// NewService wires the service dependencies and precomputes the hash used
// for unknown-user logins.
func NewService(users storage.UserStore, hasher PasswordHasher, tokens *TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := hasher.Hash("cinevault-dummy-password")
	if err != nil {
		logger.Warn("dummy hash unavailable", "error", err)
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger, dummyHash: dummy}
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	return s.create(ctx, in, models.RoleUser)
}

// EnsureAdmin creates an administrator account unless the username or email
// is already taken, in which case it does nothing.
func (s *Service) EnsureAdmin(ctx context.Context, in RegisterInput) error {
	err := s.create(ctx, in, models.RoleAdmin)
	if errors.Is(err, ErrDuplicateAccount) {
		return nil
	}
	return err
}

func (s *Service) create(ctx context.Context, in RegisterInput, role models.Role) error {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	created, err := s.users.AddUser(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrDuplicateAccount
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("username", in.Username).
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "role", created.Role)
	return nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "find user").
				Wrap(err)
		}
		// Burn the same bcrypt work as a real comparison.
		s.hasher.Verify(password, s.dummyHash)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(SessionClaims{ID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		return LoginResult{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return LoginResult{Token: token, User: user.Public()}, nil
}

// Identify resolves a session token to the identity it asserts.
func (s *Service) Identify(token string) (models.PublicUser, bool) {
	claims, ok := s.tokens.Verify(token)
	if !ok {
		return models.PublicUser{}, false
	}
	return claims.Public(), true
}
