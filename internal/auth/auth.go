// Package auth signs users up and in, and resolves bearer tokens to a user.
// A token is only honoured while its session key exists in the key/value store,
// so signing out revokes it before the JWT itself expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/kv"
)

var (
	ErrNoSession          = errors.New("auth: no active session")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrWeakPassword       = errors.New("auth: password too short")
)

const MinPasswordLength = 8

// Store is the account slice of the data collaborator.
type Store interface {
	CreateUser(ctx context.Context, user *db.User) error
	FindUserByEmail(ctx context.Context, email string) (*db.User, error)
	FindUser(ctx context.Context, id uint) (*db.User, error)
}

// Claims is the access token payload.
type Claims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// Session is a signed-in session handed to the client.
type Session struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	IsNewUser bool      `json:"is_new_user"`
}

type Service struct {
	store    Store
	sessions kv.Store
	secret   []byte
	ttl      time.Duration
	Now      func() time.Time
}

func NewService(store Store, sessions kv.Store, secret string, ttl time.Duration) *Service {
	return &Service{store: store, sessions: sessions, secret: []byte(secret), ttl: ttl, Now: time.Now}
}

func sessionKey(id string) string {
	return "session:" + id
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &db.User{Email: email, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// a concurrent sign-up with the same email won the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		if again, findErr := s.store.FindUserByEmail(ctx, email); findErr == nil && again != nil {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	sess.IsNewUser = true
	return sess, nil
}

// SignIn checks the password and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *db.User) (*Session, error) {
	now := s.Now()
	expiresAt := now.Add(s.ttl)
	id := uuid.NewString()

	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := s.sessions.Set(ctx, sessionKey(id), claims.Subject, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Session{Token: token, UserID: user.ID, Email: user.Email, ExpiresAt: expiresAt}, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, ErrNoSession
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its user id.
func (s *Service) Authenticate(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrNoSession
	}
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}
	owner, err := s.sessions.Get(ctx, sessionKey(claims.ID))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if owner != claims.Subject {
		return 0, ErrNoSession
	}
	return claims.UserID, nil
}

// SignOut revokes the session behind token.
func (s *Service) SignOut(ctx context.Context, token string) (uint, error) {
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}
	if err := s.sessions.Delete(ctx, sessionKey(claims.ID)); err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return claims.UserID, nil
}

// User loads the account behind an authenticated id.
func (s *Service) User(ctx context.Context, userID uint) (*db.User, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSession
	}
	return user, nil
}
