package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateEmail is returned by Create when the email is taken
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountNotFound is returned when no account matches
	ErrAccountNotFound = errors.New("account not found")
)

// Account is a locally stored account awaiting or past email confirmation.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Firstname    string
	Lastname     string
	DateOfBirth  string
	CreatedAt    time.Time
	ConfirmedAt  *time.Time
}

// AccountRepository persists accounts. Emails are stored lower-cased and are unique.
type AccountRepository interface {
	Create(ctx context.Context, account Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error
}
