package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/cinevault-be/internal/models"
	"github.com/hongminglow/cinevault-be/internal/storage"
	"github.com/hongminglow/cinevault-be/internal/storage/jsonfile"
)

func newTestService(t *testing.T) (*Service, storage.UserStore) {
	t.Helper()
	store, err := jsonfile.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, NewBcryptHasher(bcrypt.MinCost), NewTokenManager("test-secret", "test-issuer"), logger)
	return svc, store
}

func TestService_Scenario(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Phone: "555-0100", Password: "secret1"}))

	err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Phone: "555-0101", Password: "secret2"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	res, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, models.RoleUser, res.User.Role)

	stored, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, res.User.ID)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	identity, ok := svc.Identify(res.Token)
	require.True(t, ok)
	assert.Equal(t, res.User, identity)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Phone: "1", Password: "pw"}))
	err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "a@x.com", Phone: "2", Password: "pw"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestService_CredentialUniformity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Phone: "1", Password: "secret1"}))

	_, unknownErr := svc.Login(ctx, "nosuchuser", "x")
	_, wrongErr := svc.Login(ctx, "alice", "wrong")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestService_ConcurrentRegistration(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	const n = 16
	results := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = svc.Register(ctx, RegisterInput{
				Username: "alice",
				Email:    fmt.Sprintf("a%d@x.com", i),
				Phone:    "555-0100",
				Password: "secret1",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dupes int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateAccount):
			dupes++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dupes)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	in := RegisterInput{Username: "root", Email: "root@x.com", Phone: "0", Password: "adminpw"}

	require.NoError(t, svc.EnsureAdmin(ctx, in))
	require.NoError(t, svc.EnsureAdmin(ctx, in), "second run is a no-op")

	u, err := store.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	res, err := svc.Login(ctx, "root", "adminpw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
}

type failingStore struct {
	storage.UserStore
	err error
}

func (f failingStore) AddUser(context.Context, models.User) (models.User, error) {
	return models.User{}, f.err
}

func (f failingStore) FindByUsername(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}

func TestService_StoreFailuresAreNotDomainErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewService(failingStore{err: boom}, NewBcryptHasher(bcrypt.MinCost), NewTokenManager("s", "i"), nil)

	err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "b", Phone: "c", Password: "d"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateAccount)

	_, err = svc.Login(context.Background(), "a", "d")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_IdentifyRejectsInvalidToken(t *testing.T) {
	svc, _ := newTestService(t)
	_, ok := svc.Identify("")
	assert.False(t, ok)
	_, ok = svc.Identify("garbage")
	assert.False(t, ok)
}

type countingHasher struct {
	PasswordHasher

	mu     sync.Mutex
	hashes int
}

func (c *countingHasher) Hash(password string) (string, error) {
	c.mu.Lock()
	c.hashes++
	c.mu.Unlock()
	return c.PasswordHasher.Hash(password)
}

func (c *countingHasher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hashes
}

func TestService_UnknownUserLoginDoesNotHash(t *testing.T) {
	store, err := jsonfile.NewUserStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	hasher := &countingHasher{PasswordHasher: NewBcryptHasher(bcrypt.MinCost)}

	svc := NewService(store, hasher, NewTokenManager("s", "i"), nil)
	require.Equal(t, 1, hasher.count(), "dummy hash is built at construction")
	require.NotEmpty(t, svc.dummyHash)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), "ghost", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Equal(t, 1, hasher.count())
}
