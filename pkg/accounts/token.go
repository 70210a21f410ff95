package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

const (
	tokenIssuer  = "simple-register"
	tokenPurpose = "email_confirmation"
)

// ConfirmationClaims are carried by the link mailed after signup.
type ConfirmationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies confirmation tokens with HMAC-SHA256.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue creates a token for the given account.
func (t *TokenIssuer) Issue(accountID uuid.UUID, email string) (string, error) {
	now := t.now()
	claims := ConfirmationClaims{
		Email:   email,
		Purpose: tokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign confirmation token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the account it confirms.
func (t *TokenIssuer) Parse(token string) (uuid.UUID, *ConfirmationClaims, error) {
	claims := &ConfirmationClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, nil, apperrors.Wrap(err, apperrors.ErrCodeTokenExpired, "confirmation link has expired")
		}
		return uuid.Nil, nil, apperrors.Wrap(err, apperrors.ErrCodeTokenInvalid, "invalid confirmation link")
	}
	if claims.Purpose != tokenPurpose {
		return uuid.Nil, nil, apperrors.New(apperrors.ErrCodeTokenInvalid, "invalid confirmation link")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, apperrors.Wrap(err, apperrors.ErrCodeTokenInvalid, "invalid confirmation link")
	}
	return id, claims, nil
}
