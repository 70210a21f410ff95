// Package web serves the registration page shell and its JSON API. Every
// request works on the caller's view session (see pkg/viewsession).
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-register/pkg/authprovider"
	apperrors "github.com/tendant/simple-register/pkg/errors"
	"github.com/tendant/simple-register/pkg/ratelimit"
	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/signup"
	"github.com/tendant/simple-register/pkg/viewsession"
)

// notice codes carried from the callback to the page
var notices = map[string]string{
	"confirmed": NoticeConfirmed,
	"expired":   NoticeLinkExpired,
	"invalid":   NoticeLinkInvalid,
	"failed":    NoticeConfirmFailure,
}

type Handle struct {
	sessions    *viewsession.Registry
	workflow    *signup.Workflow
	confirmer   authprovider.Confirmer
	limiter     *ratelimit.Middleware
	lang        string
	title       string
	description string
}

type Option func(*Handle)

// WithConfirmer lets /auth/callback confirm accounts itself. Without one the
// callback only switches the view to the login form.
func WithConfirmer(c authprovider.Confirmer) Option {
	return func(h *Handle) {
		h.confirmer = c
	}
}

// WithRateLimit guards the submit routes.
func WithRateLimit(m *ratelimit.Middleware) Option {
	return func(h *Handle) {
		h.limiter = m
	}
}

// WithPageMeta sets the document language, title and description.
func WithPageMeta(lang, title, description string) Option {
	return func(h *Handle) {
		h.lang = lang
		h.title = title
		h.description = description
	}
}

func NewHandle(sessions *viewsession.Registry, workflow *signup.Workflow, opts ...Option) *Handle {
	h := &Handle{
		sessions:    sessions,
		workflow:    workflow,
		lang:        "fi",
		title:       "Rekisteröidy",
		description: "Luo uusi tili",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the page and API routes on r.
func (h *Handle) Routes(r chi.Router) {
	r.Get("/", h.Page)
	r.Post("/view/login", h.ShowLogin)
	r.Post("/view/register", h.ShowRegister)
	r.Get("/auth/callback", h.AuthCallback)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Handler)
		}
		r.Post("/register", h.Register)
		r.Post("/api/submit", h.Submit)
	})

	r.Get("/api/state", h.State)
	r.Put("/api/view", h.SetFormView)
	r.Put("/api/fields/{field}", h.ChangeField)
	r.Post("/api/fields/{field}/blur", h.BlurField)
}

// Page handles GET /
func (h *Handle) Page(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	h.renderPage(w, http.StatusOK, h.pageData(s.Mount, notices[r.URL.Query().Get("notice")]))
}

// Register handles the form post of the register view.
func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse registration form", "error", err)
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	// values posted while the provider is still answering would pick up its result
	if s.Mount.Outcome().Kind == signup.OutcomePending {
		logSubmitError(s.ID, signup.ErrSubmissionInFlight)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	for _, f := range registerform.Fields {
		if _, ok := r.PostForm[string(f)]; ok {
			s.Mount.Form.Change(f, r.PostForm.Get(string(f)))
		}
	}

	outcome, err := h.workflow.Submit(r.Context(), s.Mount)
	logSubmitError(s.ID, err)
	slog.Debug("Registration form submitted", "session_id", s.ID, "outcome", outcome.Kind)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowLogin handles POST /view/login ("Onko sinulla jo tili?")
func (h *Handle) ShowLogin(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	s.Mount.Flags.SetFormView(true)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowRegister handles POST /view/register
func (h *Handle) ShowRegister(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	s.Mount.Flags.SetFormView(false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AuthCallback handles the link of the confirmation email.
func (h *Handle) AuthCallback(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	s.Mount.Flags.SetFormView(true)

	notice := "confirmed"
	if h.confirmer != nil {
		notice = h.confirm(r)
	} else if r.URL.Query().Get("code") == "" {
		notice = "invalid"
	}
	http.Redirect(w, r, "/?notice="+notice, http.StatusSeeOther)
}

func (h *Handle) confirm(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		return "invalid"
	}
	user, err := h.confirmer.ConfirmAccount(r.Context(), token)
	switch {
	case err == nil:
		slog.Info("Account confirmed through callback", "user_id", user.ID)
		return "confirmed"
	case apperrors.IsCode(err, apperrors.ErrCodeTokenExpired):
		return "expired"
	case apperrors.IsCode(err, apperrors.ErrCodeTokenInvalid), apperrors.IsCode(err, apperrors.ErrCodeNotFound):
		slog.Warn("Invalid confirmation link", "error", err)
		return "invalid"
	default:
		slog.Error("Failed to confirm account", "error", err)
		return "failed"
	}
}

// State handles GET /api/state
func (h *Handle) State(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	render.JSON(w, r, stateOf(s.Mount))
}

// SetFormView handles PUT /api/view
func (h *Handle) SetFormView(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	var req SetFormViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	s.Mount.Flags.SetFormView(req.FormView)
	render.JSON(w, r, stateOf(s.Mount))
}

// ChangeField handles PUT /api/fields/{field}
func (h *Handle) ChangeField(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	field, ok := registerform.ParseField(chi.URLParam(r, "field"))
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Unknown field"})
		return
	}
	var req ChangeFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if s.Mount.Outcome().Kind == signup.OutcomePending {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, stateOf(s.Mount))
		return
	}
	s.Mount.Form.Change(field, req.Value)
	render.JSON(w, r, stateOf(s.Mount))
}

// BlurField handles POST /api/fields/{field}/blur
func (h *Handle) BlurField(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	field, ok := registerform.ParseField(chi.URLParam(r, "field"))
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Unknown field"})
		return
	}
	s.Mount.Form.Blur(field)
	render.JSON(w, r, stateOf(s.Mount))
}

// Submit handles POST /api/submit
func (h *Handle) Submit(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	_, err := h.workflow.Submit(r.Context(), s.Mount)
	logSubmitError(s.ID, err)

	switch {
	case errors.Is(err, registerform.ErrValidationFailed):
		render.Status(r, http.StatusUnprocessableEntity)
	case errors.Is(err, signup.ErrSubmissionInFlight):
		render.Status(r, http.StatusConflict)
	}
	render.JSON(w, r, stateOf(s.Mount))
}

// LimitedPage answers a rate limited form post with the generic banner as text
// and a rate limited API call with JSON.
func LimitedPage(w http.ResponseWriter, r *http.Request, err *apperrors.Error) {
	if r.URL.Path != "/register" {
		render.Status(r, err.HTTPStatusCode())
		render.JSON(w, r, ErrorResponse{Error: "Too many requests. Please try again later.", Code: string(err.Code)})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(err.HTTPStatusCode())
	w.Write([]byte(signup.BannerGeneric))
}

func logSubmitError(sessionID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, registerform.ErrValidationFailed):
		slog.Debug("Registration form has errors", "session_id", sessionID, "fields", apperrors.GetDetails(err)["fields"])
	case errors.Is(err, signup.ErrSubmissionInFlight):
		slog.Info("Ignoring repeated registration submit", "session_id", sessionID)
	default:
		slog.Warn("Registration submit not applied", "session_id", sessionID, "error", err)
	}
}
