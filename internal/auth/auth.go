// Package auth issues and verifies access tokens and holds the ownership
// predicate the HTTP gateway applies to order routes.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/storeframe/orderd/internal/domain/user"
)

// Sentinel errors surfaced to the gateway.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// RegisterRequest holds the input for account registration.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service registers accounts, verifies logins, and issues HS256 access
// tokens.
type Service struct {
	users  user.Repository
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth Service. ttl bounds the lifetime of issued
// tokens.
func NewService(users user.Repository, secret []byte, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
	}
}

// Register creates a new account with a bcrypt-hashed password and returns it
// together with a fresh access token. Duplicate emails fail with
// user.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Roles:        []string{user.RoleUser},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies the credentials and returns the account with a fresh access
// token. Unknown emails and wrong passwords both map to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// tokenClaims is the JWT payload: subject is the user id.
type tokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// ParseToken verifies a token string and returns the identity it encodes.
func (s *Service) ParseToken(raw string) (Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}, nil
}
