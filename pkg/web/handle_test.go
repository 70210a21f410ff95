package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tendant/simple-register/pkg/authprovider"
	apperrors "github.com/tendant/simple-register/pkg/errors"
	"github.com/tendant/simple-register/pkg/ratelimit"
	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/signup"
	"github.com/tendant/simple-register/pkg/viewsession"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubProvider answers with err, or success. When release is set, calls
// signal entered and wait for release to be closed.
type stubProvider struct {
	mu      sync.Mutex
	calls   []authprovider.SignUpRequest
	err     error
	entered chan struct{}
	release chan struct{}
}

func (p *stubProvider) CreateAccount(ctx context.Context, req authprovider.SignUpRequest) (*authprovider.SignUpResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	if p.release != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return &authprovider.SignUpResult{User: &authprovider.User{ID: "u1", Email: req.Email}}, nil
}

func (p *stubProvider) Calls() []authprovider.SignUpRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]authprovider.SignUpRequest(nil), p.calls...)
}

type stubConfirmer struct {
	token string
	err   error
}

func (c *stubConfirmer) ConfirmAccount(ctx context.Context, token string) (*authprovider.User, error) {
	c.token = token
	if c.err != nil {
		return nil, c.err
	}
	return &authprovider.User{ID: "u1", Email: "anna@example.fi"}, nil
}

// browser keeps the view session cookie between requests.
type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newBrowser(t *testing.T, provider authprovider.AccountCreator, opts ...Option) *browser {
	t.Helper()
	workflow := signup.NewWorkflow(provider, signup.WithRedirectURL("http://localhost:4000/auth/callback"))
	h := NewHandle(viewsession.NewRegistry(nil), workflow, opts...)
	r := chi.NewRouter()
	h.Routes(r)
	return &browser{t: t, router: r}
}

func (b *browser) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == viewsession.CookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) page() string {
	b.t.Helper()
	rec := b.do(http.MethodGet, "/", nil, "")
	require.Equal(b.t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) state() StateResponse {
	b.t.Helper()
	rec := b.do(http.MethodGet, "/api/state", nil, "")
	require.Equal(b.t, http.StatusOK, rec.Code)
	var s StateResponse
	require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func validForm() url.Values {
	return url.Values{
		"firstname":     {"Anna"},
		"lastname":      {"Korhonen"},
		"email":         {"anna@example.fi"},
		"date_of_birth": {"1990-05-01"},
		"password":      {"Salainen1"},
	}
}

func TestPage_Shell(t *testing.T) {
	b := newBrowser(t, &stubProvider{})
	body := b.page()

	assert.Contains(t, body, `<html lang="fi">`)
	assert.Contains(t, body, "family=Inter")
	assert.Contains(t, body, `action="/register"`)
	assert.Contains(t, body, "Onko sinulla jo tili?")
	assert.Contains(t, body, `id="date_of_birth"`)
	// nothing is touched yet
	assert.NotContains(t, body, registerform.MsgEmailRequired)
	assert.NotContains(t, body, `class="spinner"`)
	require.NotNil(t, b.cookie)
}

func TestRegister_Success(t *testing.T) {
	provider := &stubProvider{}
	b := newBrowser(t, provider)
	b.page()

	rec := b.postForm("/register", validForm())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := b.page()
	assert.Contains(t, body, signup.BannerSuccess)
	assert.Contains(t, body, `value="anna@example.fi"`)
	assert.NotContains(t, body, "Salainen1")

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "1.5.1990", calls[0].Metadata.DateOfBirth)
	assert.Equal(t, "http://localhost:4000/auth/callback", calls[0].RedirectTo)
}

func TestRegister_MissingEmail(t *testing.T) {
	provider := &stubProvider{}
	b := newBrowser(t, provider)

	form := validForm()
	form.Set("email", "")
	rec := b.postForm("/register", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := b.page()
	assert.Contains(t, body, registerform.MsgEmailRequired)
	assert.Contains(t, body, `aria-invalid="true"`)
	assert.Empty(t, provider.Calls())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	provider := &stubProvider{
		err: authprovider.ClassifyRejection(http.StatusUnprocessableEntity, "", authprovider.MsgUserAlreadyRegistered),
	}
	b := newBrowser(t, provider)

	b.postForm("/register", validForm())
	body := b.page()
	assert.Contains(t, body, signup.MsgEmailTaken)
	assert.Contains(t, body, signup.BannerEmailTaken)
}

func TestRegister_PostWhileInFlightKeepsValues(t *testing.T) {
	provider := &stubProvider{
		err:     authprovider.ClassifyRejection(http.StatusUnprocessableEntity, "", authprovider.MsgUserAlreadyRegistered),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	b := newBrowser(t, provider)
	b.page()

	done := make(chan int, 1)
	go func() {
		done <- b.postForm("/register", validForm()).Code
	}()
	<-provider.entered

	second := validForm()
	second.Set("email", "toinen@example.fi")
	rec := b.postForm("/register", second)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.do(http.MethodPut, "/api/fields/email", strings.NewReader(`{"value":"kolmas@example.fi"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(provider.release)
	assert.Equal(t, http.StatusSeeOther, <-done)

	s := b.state()
	assert.Equal(t, "anna@example.fi", s.Values.Email)
	assert.Equal(t, signup.MsgEmailTaken, s.Errors["email"])
	assert.Len(t, provider.Calls(), 1)
}

func TestFormViewToggle(t *testing.T) {
	b := newBrowser(t, &stubProvider{})

	rec := b.postForm("/view/login", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.page(), "Kirjaudu sisään")
	assert.True(t, b.state().Flags.FormView)

	b.postForm("/view/register", nil)
	assert.Contains(t, b.page(), `action="/register"`)

	rec = b.do(http.MethodPut, "/api/view", strings.NewReader(`{"form_view":true}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, b.state().Flags.FormView)
}

func TestAPI_ChangeAndBlur(t *testing.T) {
	b := newBrowser(t, &stubProvider{})

	rec := b.do(http.MethodPut, "/api/fields/email", strings.NewReader(`{"value":"not-an-email"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	s := b.state()
	assert.Equal(t, "not-an-email", s.Values.Email)
	assert.Empty(t, s.Errors, "untouched fields show no errors")

	rec = b.do(http.MethodPost, "/api/fields/email/blur", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	s = b.state()
	assert.Equal(t, map[string]string{"email": registerform.MsgEmailInvalid}, s.Errors)
	assert.Equal(t, []string{"email"}, s.Touched)

	rec = b.do(http.MethodPut, "/api/fields/nickname", strings.NewReader(`{"value":"x"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.do(http.MethodPut, "/api/fields/email", strings.NewReader(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Submit(t *testing.T) {
	provider := &stubProvider{}
	b := newBrowser(t, provider)

	rec := b.do(http.MethodPost, "/api/submit", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, provider.Calls())

	for field, values := range validForm() {
		body := `{"value":"` + values[0] + `"}`
		rec = b.do(http.MethodPut, "/api/fields/"+field, strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = b.do(http.MethodPost, "/api/submit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Salainen1")

	var s StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, signup.OutcomeSuccess, s.Outcome.Kind)
	assert.False(t, s.Flags.SpinnerVisible)
	assert.Len(t, provider.Calls(), 1)
}

func TestAuthCallback(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		notice string
	}{
		{"confirmed", "/auth/callback?token=abc", nil, NoticeConfirmed},
		{"expired", "/auth/callback?token=abc", apperrors.New(apperrors.ErrCodeTokenExpired, "expired"), NoticeLinkExpired},
		{"invalid", "/auth/callback?token=abc", apperrors.New(apperrors.ErrCodeTokenInvalid, "bad"), NoticeLinkInvalid},
		{"missing token", "/auth/callback", nil, NoticeLinkInvalid},
		{"store failure", "/auth/callback?token=abc", apperrors.New(apperrors.ErrCodeInternal, "db down"), NoticeConfirmFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &stubConfirmer{err: tt.err}
			b := newBrowser(t, &stubProvider{}, WithConfirmer(confirmer))

			rec := b.do(http.MethodGet, tt.target, nil, "")
			require.Equal(t, http.StatusSeeOther, rec.Code)

			page := b.do(http.MethodGet, rec.Header().Get("Location"), nil, "")
			assert.Contains(t, page.Body.String(), "Kirjaudu sisään")
			assert.Contains(t, page.Body.String(), tt.notice)
		})
	}
}

func TestAuthCallback_HostedProvider(t *testing.T) {
	b := newBrowser(t, &stubProvider{})

	rec := b.do(http.MethodGet, "/auth/callback?code=xyz", nil, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?notice=confirmed", rec.Header().Get("Location"))
}

func TestSubmit_RateLimited(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	cfg.PerSessionCapacity = 1
	cfg.PerSessionRefillRate = 0
	limiter := ratelimit.NewMiddleware(cfg,
		ratelimit.WithSessionKey(viewsession.SessionID),
		ratelimit.WithLimitedHandler(LimitedPage),
	)
	t.Cleanup(limiter.Close)

	b := newBrowser(t, &stubProvider{}, WithRateLimit(limiter))
	b.page()

	assert.Equal(t, http.StatusUnprocessableEntity, b.do(http.MethodPost, "/api/submit", nil, "").Code)
	rec := b.do(http.MethodPost, "/api/submit", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = b.postForm("/register", validForm())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), signup.BannerGeneric)
}
