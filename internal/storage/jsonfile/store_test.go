package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/cinevault-be/internal/models"
	"github.com/hongminglow/cinevault-be/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "users.json")
	s, err := NewUserStore(path)
	require.NoError(t, err)
	return s, path
}

func candidate(username, email string) models.User {
	return models.User{
		Username:     username,
		Email:        email,
		Phone:        "555-0100",
		PasswordHash: "$2a$10$notarealhash",
		Role:         models.RoleUser,
	}
}

func TestStore_EmptyWhenFileMissing(t *testing.T) {
	s, _ := newTestStore(t)

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = s.FindByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_AddAndFind(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := candidate("alice", "a@x.com")
	in.ID = "caller-supplied"
	created, err := s.AddUser(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "caller-supplied", created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "a@x.com", found.Email)
	assert.Equal(t, "555-0100", found.Phone)
	assert.Equal(t, in.PasswordHash, found.PasswordHash)
	assert.Equal(t, models.RoleUser, found.Role)

	_, err = s.FindByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, storage.ErrNotFound, "username match is case-sensitive")
}

func TestStore_RejectsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddUser(ctx, candidate("alice", "a@x.com"))
	require.NoError(t, err)

	tests := []struct {
		name string
		user models.User
	}{
		{name: "same username", user: candidate("alice", "other@x.com")},
		{name: "same email", user: candidate("bob", "a@x.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddUser(ctx, tt.user)
			assert.ErrorIs(t, err, storage.ErrAlreadyExists)
		})
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	created, err := s.AddUser(ctx, candidate("alice", "a@x.com"))
	require.NoError(t, err)

	reopened, err := NewUserStore(path)
	require.NoError(t, err)
	found, err := reopened.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.PasswordHash, found.PasswordHash)
}

func TestStore_CorruptDocumentIsAnError(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := s.ListUsers(context.Background())
	require.Error(t, err)

	_, err = s.AddUser(context.Background(), candidate("alice", "a@x.com"))
	require.Error(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "corrupt document must not be overwritten")
}

func TestStore_UnknownRoleRejected(t *testing.T) {
	t.Run("on write", func(t *testing.T) {
		s, path := newTestStore(t)
		u := candidate("alice", "a@x.com")
		u.Role = "superuser"

		_, err := s.AddUser(context.Background(), u)
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrAlreadyExists)
		assert.NoFileExists(t, path)
	})

	t.Run("on read", func(t *testing.T) {
		s, path := newTestStore(t)
		doc := `{"users":[{"id":"1","username":"alice","email":"a@x.com","role":"superuser"}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		_, err := s.FindByUsername(context.Background(), "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_ConcurrentSameUsername(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := s.AddUser(ctx, candidate("alice", fmt.Sprintf("a%d@x.com", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, storage.ErrAlreadyExists):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, dupes)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestStore_ConcurrentDistinctUsersGetDistinctIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddUser(ctx, candidate(fmt.Sprintf("user%d", i), fmt.Sprintf("u%d@x.com", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, n)
	seen := make(map[string]bool, n)
	for _, u := range users {
		assert.False(t, seen[u.ID], "duplicate id %s", u.ID)
		seen[u.ID] = true
	}
}
