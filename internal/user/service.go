package user

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"roomchat/internal/apperr"
	"roomchat/internal/chat"
)

// Store is the slice of the repository the service needs.
type Store interface {
	Ensure(ctx context.Context, nickname string) (*User, error)
	GetByNickname(ctx context.Context, nickname string) (*User, error)
	Exists(ctx context.Context, nickname string) (bool, error)
	List(ctx context.Context) ([]User, error)
}

type Service struct {
	store              Store
	jwtSecret          string
	accessPasswordHash string
	tokenTTL           time.Duration
}

type nicknameClaims struct {
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

func NewService(store Store, jwtSecret, accessPasswordHash string, tokenTTL time.Duration) *Service {
	return &Service{
		store:              store,
		jwtSecret:          jwtSecret,
		accessPasswordHash: accessPasswordHash,
		tokenTTL:           tokenTTL,
	}
}

// Login checks the shared access password, creates the user on first sight
// and issues a bearer token for the nickname.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return nil, apperr.InvalidArg("nickname is required")
	}
	if req.Password == "" {
		return nil, apperr.InvalidArg("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.accessPasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid password")
	}
	for _, reserved := range chat.ReservedSenders {
		if strings.EqualFold(nickname, reserved) {
			return nil, apperr.InvalidArg("nickname is reserved")
		}
	}

	u, err := s.store.Ensure(ctx, nickname)
	if err != nil {
		log.Printf("login: ensure user %q: %v", nickname, err)
		return nil, apperr.Unavailable("could not create user", err)
	}

	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Unavailable("could not list users", err)
	}

	token, err := s.issueToken(u.Nickname)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not sign token", err)
	}

	return &LoginResponse{User: u, Users: users, Token: token}, nil
}

func (s *Service) issueToken(nickname string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, nicknameClaims{
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "roomchat",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a bearer token, returning the nickname.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims := &nicknameClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid || strings.TrimSpace(claims.Nickname) == "" {
		return "", apperr.Unauthorized("invalid token")
	}
	return strings.TrimSpace(claims.Nickname), nil
}

// Authenticate resolves a token to a known user. A token for a nickname that
// was never created is rejected the same as a bad signature.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (string, error) {
	nickname, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	found, err := s.store.Exists(ctx, nickname)
	if err != nil {
		return "", apperr.Unavailable("could not look up user", err)
	}
	if !found {
		return "", apperr.Unauthorized("unknown user")
	}
	return nickname, nil
}

func (s *Service) Me(ctx context.Context, nickname string) (*User, []User, error) {
	u, err := s.store.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, nil, apperr.Unavailable("could not load user", err)
	}
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, apperr.Unavailable("could not list users", err)
	}
	return u, users, nil
}

// Roster feeds the hub's bootstrap push for freshly opened channels.
func (s *Service) Roster(ctx context.Context) (any, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"users": users}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Unavailable("could not list users", err)
	}
	return users, nil
}
