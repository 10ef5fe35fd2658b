// Package auth provides user accounts and JWT-based authentication.
//
// The rest of the application never sees credentials: handlers receive
// an already-verified user id resolved from the bearer token by the
// HTTP middleware in the api package.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for account operations.
var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound indicates no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates a failed login attempt. The same
	// error covers unknown email and wrong password so responses do not
	// reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a missing, malformed or expired token.
	ErrInvalidToken = errors.New("invalid token")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore is the account persistence contract.
type UserStore interface {
	// Create inserts a new account. ErrEmailTaken if the email exists.
	Create(ctx context.Context, email, passwordHash string) (*User, error)

	// GetByEmail returns the account for email or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
