// Package auth implements user registration and login on top of pkg/auth.
// Accounts exist so the JSON API can keep run history per user; the HTML
// GUI stays anonymous and never touches this package.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/zerofn/zof/pkg/auth"
)

// ErrInvalidCredentials is returned by Login when email or password is
// incorrect. A single error for both cases avoids leaking whether an email
// exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned by Register when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrEmailInvalid is returned by Register for emails without an "@".
var ErrEmailInvalid = errors.New("email must contain @")

// ErrPasswordTooShort is returned by Register for passwords under 8 characters.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// User is a registered account as stored in the users table.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// RegisterInput holds the data needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
}

// validate applies the registration rules. The email check is deliberately
// shallow: anything with an "@" is accepted and uniqueness does the rest.
func (in RegisterInput) validate() error {
	if !strings.Contains(in.Email, "@") {
		return ErrEmailInvalid
	}
	if len(in.Password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Service implements registration and login against the users table.
type Service struct {
	db *sql.DB
}

// NewService creates a Service backed by the provided DB.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Register validates the input, hashes the password, and inserts the user.
// Plaintext passwords are never stored.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Email:     input.Email,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Email, hash, user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		// The users.email UNIQUE index is the source of truth for taken
		// emails; SQLite reports it only through the error text.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns a signed JWT. Unknown emails and
// wrong passwords produce the same ErrInvalidCredentials so callers cannot
// tell which one happened.
func (s *Service) Login(ctx context.Context, input LoginInput) (string, error) {
	var userID, email, passwordHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash FROM users WHERE email = ? LIMIT 1",
		input.Email,
	).Scan(&userID, &email, &passwordHash)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !pkgauth.VerifyPassword(passwordHash, input.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := pkgauth.GenerateJWT(userID, email)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
