package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"roomchat/internal/apperr"
)

type memStore struct {
	users map[string]*User
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*User{}}
}

func (s *memStore) Ensure(ctx context.Context, nickname string) (*User, error) {
	if u, ok := s.users[nickname]; ok {
		return u, nil
	}
	u := &User{Nickname: nickname, CreatedAt: time.Now()}
	s.users[nickname] = u
	return u, nil
}

func (s *memStore) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	if u, ok := s.users[nickname]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (s *memStore) Exists(ctx context.Context, nickname string) (bool, error) {
	_, ok := s.users[nickname]
	return ok, nil
}

func (s *memStore) List(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	store := newMemStore()
	return NewService(store, "test-secret", string(hash), time.Hour), store
}

func TestLoginCreatesUserAndIssuesToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &LoginRequest{Nickname: "alice", Password: "letmein"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Nickname)
	assert.NotEmpty(t, res.Token)
	assert.Len(t, res.Users, 1)
	assert.Contains(t, store.users, "alice")

	// The token round-trips back to the nickname.
	nickname, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", nickname)
}

func TestLoginSecondTimeKeepsUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, &LoginRequest{Nickname: "alice", Password: "letmein"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, &LoginRequest{Nickname: "alice", Password: "letmein"})
	require.NoError(t, err)
	assert.Equal(t, first.User.CreatedAt, second.User.CreatedAt)
	assert.Len(t, second.Users, 1)
}

func TestLoginValidation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    *LoginRequest
		status int
	}{
		{"missing nickname", &LoginRequest{Password: "letmein"}, 400},
		{"whitespace nickname", &LoginRequest{Nickname: "   ", Password: "letmein"}, 400},
		{"missing password", &LoginRequest{Nickname: "alice"}, 400},
		{"wrong password", &LoginRequest{Nickname: "alice", Password: "nope"}, 401},
		{"reserved nickname", &LoginRequest{Nickname: "chatgpt", Password: "letmein"}, 400},
		{"reserved nickname exact", &LoginRequest{Nickname: "Gemini", Password: "letmein"}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperr.HTTPStatus(err))
		})
	}
	assert.Empty(t, store.users, "failed logins never create users")
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "not-a-token")
	assert.Error(t, err)

	// A structurally valid token signed with another secret.
	other := NewService(newMemStore(), "other-secret", "x", time.Hour)
	forged, err := other.issueToken("alice")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	assert.Error(t, err)
}

func TestAuthenticateRequiresKnownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Valid signature, but the user was never created.
	token, err := svc.issueToken("ghost")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, token)
	require.Error(t, err)
	assert.Equal(t, 401, apperr.HTTPStatus(err))
}

func TestValidateTokenExpiry(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewService(newMemStore(), "secret", string(hash), -time.Minute)

	token, err := svc.issueToken("alice")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "expired tokens are rejected")
}
