package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

// GoTrueConfig configures the hosted auth service client.
type GoTrueConfig struct {
	// URL is the auth API root, e.g. https://<project>.supabase.co/auth/v1
	URL string
	// APIKey is the project's public (anon) key.
	APIKey string
	// RetryMax is the number of retries on connection errors and 5xx responses.
	// Zero disables retries; a retried signup may report a duplicate account.
	RetryMax int
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout time.Duration
}

// GoTrueClient creates accounts through the GoTrue /signup endpoint.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

// GoTrueOption configures a GoTrueClient
type GoTrueOption func(*GoTrueClient)

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(c *http.Client) GoTrueOption {
	return func(g *GoTrueClient) {
		g.http.HTTPClient = c
	}
}

// NewGoTrueClient creates a client for the given configuration.
func NewGoTrueClient(cfg GoTrueConfig, opts ...GoTrueOption) (*GoTrueClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("gotrue url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid gotrue url: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.RequestTimeout > 0 {
		rc.HTTPClient.Timeout = cfg.RequestTimeout
	}

	g := &GoTrueClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    rc,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type signupBody struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Data     Metadata `json:"data"`
}

// signupResponse covers both shapes GoTrue answers with: a session when
// autoconfirm is on, the bare user otherwise.
type signupResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`

	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at"`
	ConfirmedAt        *time.Time     `json:"confirmed_at"`
	UserMetadata       map[string]any `json:"user_metadata"`
}

type errorResponse struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// CreateAccount implements AccountCreator.
func (g *GoTrueClient) CreateAccount(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	endpoint := g.baseURL + "/signup"
	if req.RedirectTo != "" {
		endpoint += "?" + url.Values{"redirect_to": {req.RedirectTo}}.Encode()
	}

	payload, err := json.Marshal(signupBody{
		Email:    req.Email,
		Password: req.Password,
		Data:     req.Metadata,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode signup request")
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build signup request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("apikey", g.apiKey)
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Timeout(ctx.Err(), "signup request did not complete")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResourceUnavailable, "auth service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResourceUnavailable, "failed to read signup response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		if jsonErr := json.Unmarshal(body, &er); jsonErr != nil || er.text() == "" {
			er.Msg = http.StatusText(resp.StatusCode)
		}
		slog.Info("Auth service rejected signup", "status", resp.StatusCode, "error_code", er.ErrorCode, "message", er.text())
		return nil, ClassifyRejection(resp.StatusCode, er.ErrorCode, er.text())
	}

	var sr signupResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&sr); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProviderRejected, "invalid signup response")
	}

	result := &SignUpResult{}
	if sr.AccessToken != "" {
		result.Session = &Session{
			AccessToken:  sr.AccessToken,
			RefreshToken: sr.RefreshToken,
			TokenType:    sr.TokenType,
			ExpiresIn:    sr.ExpiresIn,
		}
		result.User = sr.User
	}
	if result.User == nil {
		result.User = &User{
			ID:                 sr.ID,
			Email:              sr.Email,
			ConfirmationSentAt: sr.ConfirmationSentAt,
			ConfirmedAt:        sr.ConfirmedAt,
			UserMetadata:       sr.UserMetadata,
		}
	}
	return result, nil
}
