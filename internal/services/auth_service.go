package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Session identifies a logged in user
type Session struct {
	UserID    uint      `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"-"`
}

// IsAdmin reports whether the session belongs to an admin
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService authenticates dashboard users and issues session tokens
type AuthService struct {
	store  *database.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(store *database.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store:  store,
		secret: []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL,
		now:    time.Now,
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks credentials and returns the user
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// IssueSession signs a session token for user
func (s *AuthService) IssueSession(user *models.User) (string, *Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, &Session{UserID: user.ID, Role: user.Role, ExpiresAt: expiresAt}, nil
}

// ParseSession validates a session token
func (s *AuthService) ParseSession(token string) (*Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	session := &Session{UserID: uint(userID), Role: claims.Role}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// ResetPassword replaces a user's password
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) error {
	if err := validate.Var(password, "min=6"); err != nil {
		return invalid("password", "must be at least 6 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, username, hash); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return err
	}
	return nil
}
