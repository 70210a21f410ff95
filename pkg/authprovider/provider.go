// Package authprovider defines the account-creation capability the signup
// workflow depends on, and a client for a hosted GoTrue (Supabase Auth) service.
package authprovider

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

// MsgUserAlreadyRegistered is the message an auth provider returns when the
// email already belongs to an account.
const MsgUserAlreadyRegistered = "User already registered"

// Metadata is stored with the new account as user metadata.
type Metadata struct {
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	DateOfBirth string `json:"date_of_birth"`
}

// SignUpRequest carries everything needed to create an account.
type SignUpRequest struct {
	Email    string
	Password string
	Metadata Metadata
	// RedirectTo is where the confirmation email link sends the user.
	RedirectTo string
}

// User is the account as reported by the provider.
type User struct {
	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at,omitempty"`
	UserMetadata       map[string]any `json:"user_metadata,omitempty"`
}

// Session is returned when the provider signs the user in right away.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// SignUpResult is either a confirmed session or a user awaiting email confirmation.
type SignUpResult struct {
	User    *User
	Session *Session
}

// NeedsConfirmation reports whether the user still has to follow the email link.
func (r *SignUpResult) NeedsConfirmation() bool {
	return r != nil && r.Session == nil
}

// AccountCreator creates accounts.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
}

// Confirmer completes email confirmation for providers that own the callback.
type Confirmer interface {
	ConfirmAccount(ctx context.Context, token string) (*User, error)
}

// IsUserAlreadyRegistered reports whether err means the email is taken.
func IsUserAlreadyRegistered(err error) bool {
	return apperrors.IsCode(err, apperrors.ErrCodeUserAlreadyExists)
}

// duplicateErrorCodes are the GoTrue error_code values for a taken email.
var duplicateErrorCodes = map[string]bool{
	"user_already_exists": true,
	"email_exists":        true,
}

// ClassifyRejection turns a provider rejection into a structured error.
func ClassifyRejection(status int, errorCode, message string) *apperrors.Error {
	if message == MsgUserAlreadyRegistered || duplicateErrorCodes[strings.ToLower(errorCode)] {
		return apperrors.AlreadyExists(MsgUserAlreadyRegistered).
			WithDetail("status", status)
	}
	if status == 429 {
		return apperrors.RateLimitExceeded("").
			WithDetail("provider_message", message)
	}
	return apperrors.New(apperrors.ErrCodeProviderRejected, message).
		WithDetail("status", status).
		WithDetail("error_code", errorCode)
}
