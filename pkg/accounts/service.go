// Package accounts is a self-hosted account provider. It stores accounts in
// Postgres (or memory), mails a signed confirmation link and confirms the
// account when the link comes back through /auth/callback.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-register/pkg/authprovider"
	apperrors "github.com/tendant/simple-register/pkg/errors"
	"github.com/tendant/simple-register/pkg/notification"
)

// LocalProvider implements authprovider.AccountCreator and authprovider.Confirmer.
type LocalProvider struct {
	repo       AccountRepository
	tokens     *TokenIssuer
	notifier   notification.Notifier
	bcryptCost int
	now        func() time.Time
}

// Option configures a LocalProvider
type Option func(*LocalProvider)

// WithNotifier sets the notifier used to mail confirmation links
func WithNotifier(n notification.Notifier) Option {
	return func(p *LocalProvider) {
		p.notifier = n
	}
}

// WithBcryptCost sets the bcrypt cost for password hashes
func WithBcryptCost(cost int) Option {
	return func(p *LocalProvider) {
		p.bcryptCost = cost
	}
}

// WithClock sets the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(p *LocalProvider) {
		p.now = now
		if p.tokens != nil {
			p.tokens.now = now
		}
	}
}

// NewLocalProvider creates a provider backed by repo that signs links with tokens.
func NewLocalProvider(repo AccountRepository, tokens *TokenIssuer, opts ...Option) *LocalProvider {
	p := &LocalProvider{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	_ authprovider.AccountCreator = (*LocalProvider)(nil)
	_ authprovider.Confirmer      = (*LocalProvider)(nil)
)

// CreateAccount stores the account and mails a confirmation link. A taken
// email is rejected with the same message a hosted provider uses.
func (p *LocalProvider) CreateAccount(ctx context.Context, req authprovider.SignUpRequest) (*authprovider.SignUpResult, error) {
	if _, err := p.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, duplicateError()
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to look up account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}

	now := p.now()
	account := Account{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Firstname:    req.Metadata.Firstname,
		Lastname:     req.Metadata.Lastname,
		DateOfBirth:  req.Metadata.DateOfBirth,
		CreatedAt:    now,
	}
	if err := p.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, duplicateError()
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create account")
	}
	slog.Info("Account created", "account_id", account.ID, "email", account.Email)

	user := &authprovider.User{
		ID:    account.ID.String(),
		Email: account.Email,
		UserMetadata: map[string]any{
			"firstname":     account.Firstname,
			"lastname":      account.Lastname,
			"date_of_birth": account.DateOfBirth,
		},
	}

	// Send confirmation email (best effort)
	if err := p.sendConfirmation(account, req.RedirectTo); err != nil {
		slog.Error("Failed to send confirmation email", "account_id", account.ID, "error", err)
	} else {
		sentAt := p.now()
		user.ConfirmationSentAt = &sentAt
	}

	return &authprovider.SignUpResult{User: user}, nil
}

func (p *LocalProvider) sendConfirmation(account Account, redirectTo string) error {
	if p.notifier == nil {
		return errors.New("no notifier configured")
	}
	token, err := p.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return err
	}
	link, err := confirmationLink(redirectTo, token)
	if err != nil {
		return err
	}
	return p.notifier.Send(notification.NotificationData{
		To: account.Email,
		Data: map[string]string{
			"Firstname": account.Firstname,
			"Link":      link,
		},
	}, notification.ConfirmationTemplate)
}

func confirmationLink(redirectTo, token string) (string, error) {
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConfirmAccount verifies a confirmation token and marks the account confirmed.
// Confirming twice is not an error.
func (p *LocalProvider) ConfirmAccount(ctx context.Context, token string) (*authprovider.User, error) {
	id, claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	account, err := p.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "account not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load account")
	}
	if account.Email != claims.Email {
		return nil, apperrors.New(apperrors.ErrCodeTokenInvalid, "invalid confirmation link")
	}

	confirmedAt := p.now()
	if err := p.repo.MarkConfirmed(ctx, id, confirmedAt); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to confirm account")
	}
	if account.ConfirmedAt != nil {
		confirmedAt = *account.ConfirmedAt
	}
	slog.Info("Account confirmed", "account_id", id)

	return &authprovider.User{
		ID:          account.ID.String(),
		Email:       account.Email,
		ConfirmedAt: &confirmedAt,
	}, nil
}

func duplicateError() error {
	return authprovider.ClassifyRejection(http.StatusUnprocessableEntity, "user_already_exists", authprovider.MsgUserAlreadyRegistered)
}
