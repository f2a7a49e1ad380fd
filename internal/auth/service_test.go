package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/shared"
)

type memoryUserRepo struct {
	byID       map[int64]User
	byUsername map[string]int64
	nextID     int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: make(map[int64]User), byUsername: make(map[string]int64), nextID: 1}
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(context.Background(), id)
}

func (r *memoryUserRepo) Create(_ context.Context, u *User) error {
	if _, ok := r.byUsername[u.Username]; ok {
		return ErrDuplicate
	}
	u.ID = r.nextID
	r.nextID++
	r.byID[u.ID] = *u
	r.byUsername[u.Username] = u.ID
	return nil
}

func TestLoginBindsSessionIdentity(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	_, err := svc.CreateUser(context.Background(), UserInput{
		Username: "alice", Password: "correct horse", Role: shared.RoleTenant, TenantID: 4,
	})
	require.NoError(t, err)

	sess := &shared.Session{}
	u, err := svc.Login(context.Background(), sess, "alice", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, sess.UserID())
	require.Equal(t, shared.RoleTenant, sess.Role())
	require.Equal(t, int64(4), sess.TenantID())
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	_, err := svc.CreateUser(context.Background(), UserInput{
		Username: "alice", Password: "correct horse", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &shared.Session{}, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewService(newMemoryUserRepo())

	_, err := svc.Login(context.Background(), &shared.Session{}, "nobody", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)

	u, err := svc.CreateUser(context.Background(), UserInput{
		Username: "admin", Password: "longenough", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)
	require.NotEqual(t, "longenough", u.PasswordHash)
	require.NotEmpty(t, u.PasswordHash)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemoryUserRepo())

	cases := []UserInput{
		{Username: "", Password: "longenough", Role: shared.RoleAdmin},
		{Username: "bob", Password: "short", Role: shared.RoleAdmin},
		{Username: "bob", Password: "longenough", Role: "superuser"},
		{Username: "bob", Password: "longenough", Role: shared.RoleTenant},
		{Username: "bob", Password: "longenough", Role: shared.RoleAdmin, TenantID: 3},
	}
	for _, input := range cases {
		_, err := svc.CreateUser(context.Background(), input)
		require.ErrorIs(t, err, ErrValidation)
	}
}
