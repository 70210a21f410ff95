package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"

	"github.com/tendant/simple-register/pkg/authprovider"
	apperrors "github.com/tendant/simple-register/pkg/errors"
	"github.com/tendant/simple-register/pkg/registerform"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 15 * time.Second

var (
	// ErrSubmissionInFlight is returned when the mount is still waiting on the provider.
	ErrSubmissionInFlight = errors.New("a registration is already in progress")
	// ErrStaleMount is returned when the mount was unmounted during the provider call.
	ErrStaleMount = errors.New("registration view was unmounted")
)

// Workflow submits registration forms to an account provider.
type Workflow struct {
	provider   authprovider.AccountCreator
	timeout    time.Duration
	redirectTo string
	formatDate DateFormatter
	metrics    *Metrics
}

// Option configures a Workflow
type Option func(*Workflow)

// WithTimeout bounds each provider call. Zero or less disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		w.timeout = d
	}
}

// WithRedirectURL sets the link target of the confirmation email.
func WithRedirectURL(url string) Option {
	return func(w *Workflow) {
		w.redirectTo = url
	}
}

// WithDateFormatter sets how the date of birth is stored in the account metadata.
func WithDateFormatter(f DateFormatter) Option {
	return func(w *Workflow) {
		if f != nil {
			w.formatDate = f
		}
	}
}

// WithMetrics records submissions in m.
func WithMetrics(m *Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

func NewWorkflow(provider authprovider.AccountCreator, opts ...Option) *Workflow {
	formatDate, _ := NewDateFormatter(DefaultDateLocale)
	w := &Workflow{
		provider:   provider,
		timeout:    DefaultTimeout,
		formatDate: formatDate,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit validates the mount's form and, when it is valid, creates the
// account. The returned error is only set when the provider was not asked
// (validation failed, a submission is in flight) or the answer could not be
// applied (ErrStaleMount). Provider failures are reported through the outcome.
func (w *Workflow) Submit(ctx context.Context, m *Mount) (Outcome, error) {
	m.mu.Lock()
	switch {
	case m.outcome.Kind == OutcomePending:
		m.mu.Unlock()
		w.metrics.observe(resultInFlight)
		return Outcome{Kind: OutcomePending}, ErrSubmissionInFlight
	case m.outcome.Terminal():
		outcome := m.outcome
		m.mu.Unlock()
		return outcome, nil
	}

	values, err := m.Form.Submit()
	if err != nil {
		outcome := m.outcome
		m.mu.Unlock()
		w.metrics.observe(resultInvalid)
		return outcome, err
	}

	req, err := w.buildRequest(values)
	if err != nil {
		outcome := m.outcome
		m.mu.Unlock()
		w.metrics.observe(resultInvalid)
		return outcome, err
	}

	m.outcome = Outcome{Kind: OutcomePending}
	generation := m.generation
	m.mu.Unlock()

	result, callErr := w.createAccount(ctx, m, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		slog.Warn("Discarding registration result for unmounted view", "email", req.Email, "error", callErr)
		w.metrics.observe(resultStale)
		return Outcome{Kind: OutcomeIdle}, ErrStaleMount
	}
	m.outcome = w.resolve(m, req, result, callErr)
	return m.outcome, nil
}

func (w *Workflow) buildRequest(values registerform.FormValues) (authprovider.SignUpRequest, error) {
	var meta authprovider.Metadata
	if err := copier.Copy(&meta, &values); err != nil {
		return authprovider.SignUpRequest{}, fmt.Errorf("copy metadata: %w", err)
	}
	meta.Firstname = strings.TrimSpace(meta.Firstname)
	meta.Lastname = strings.TrimSpace(meta.Lastname)
	dob, err := w.formatDate(strings.TrimSpace(values.DateOfBirth))
	if err != nil {
		return authprovider.SignUpRequest{}, registerform.ValidationError(registerform.FieldErrors{
			registerform.FieldDateOfBirth: registerform.MsgDateInvalid,
		})
	}
	meta.DateOfBirth = dob

	return authprovider.SignUpRequest{
		Email:      strings.TrimSpace(values.Email),
		Password:   values.Password,
		Metadata:   meta,
		RedirectTo: w.redirectTo,
	}, nil
}

type callResult struct {
	result *authprovider.SignUpResult
	err    error
}

// createAccount calls the provider with the spinner shown. The spinner is
// hidden before it returns, whatever the provider does. The call is detached
// from the caller's cancellation; only the timeout bounds it.
func (w *Workflow) createAccount(ctx context.Context, m *Mount, req authprovider.SignUpRequest) (*authprovider.SignUpResult, error) {
	m.Flags.ShowSpinner()
	defer m.Flags.HideSpinner()

	done := w.metrics.callStarted()
	defer done()

	ctx = context.WithoutCancel(ctx)
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	// buffered so the provider goroutine can finish after we stop waiting
	ch := make(chan callResult, 1)
	go func() {
		res, err := w.provider.CreateAccount(ctx, req)
		ch <- callResult{result: res, err: err}
	}()

	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		return nil, apperrors.Timeout(ctx.Err(), "account provider did not answer in time")
	}
}

func (w *Workflow) resolve(m *Mount, req authprovider.SignUpRequest, result *authprovider.SignUpResult, err error) Outcome {
	switch {
	case err == nil:
		slog.Info("Account registered", "email", req.Email, "needs_confirmation", result.NeedsConfirmation())
		w.metrics.observe(resultSuccess)
		return Outcome{Kind: OutcomeSuccess, Message: BannerSuccess}

	case authprovider.IsUserAlreadyRegistered(err):
		slog.Info("Registration rejected, email already registered", "email", req.Email)
		m.Form.SetFieldError(registerform.FieldEmail, MsgEmailTaken)
		w.metrics.observe(resultDuplicate)
		return Outcome{Kind: OutcomeError, Message: BannerEmailTaken}

	case apperrors.IsCode(err, apperrors.ErrCodeTimeout) || errors.Is(err, context.DeadlineExceeded):
		slog.Error("Registration timed out", "email", req.Email, "timeout", w.timeout, "error", err)
		w.metrics.observe(resultTimeout)
		return Outcome{Kind: OutcomeError, Message: BannerGeneric}

	default:
		slog.Error("Registration failed", "email", req.Email, "code", apperrors.GetCode(err), "error", err)
		w.metrics.observe(resultFailed)
		return Outcome{Kind: OutcomeError, Message: BannerGeneric}
	}
}
