package auth

import (
	"errors"
	"time"
)

// User represents an authenticated user account.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	IsActive       bool
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Structured error kinds for the auth boundary. Handlers translate these to
// user-facing text; raw upstream messages are never matched on.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailNotConfirmed  = errors.New("auth: email not confirmed")
)
