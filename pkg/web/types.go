package web

import (
	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/signup"
	"github.com/tendant/simple-register/pkg/uiflags"
)

// StateResponse is the JSON view of a mount. The password is never included.
type StateResponse struct {
	Values  registerform.FormValues `json:"values"`
	Errors  map[string]string       `json:"errors"`
	Touched []string                `json:"touched"`
	Flags   uiflags.Flags           `json:"flags"`
	Outcome signup.Outcome          `json:"outcome"`
}

// ChangeFieldRequest is the body of PUT /api/fields/{field}
type ChangeFieldRequest struct {
	Value string `json:"value"`
}

// SetFormViewRequest is the optional body of the view toggles
type SetFormViewRequest struct {
	FormView bool `json:"form_view"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func stateOf(m *signup.Mount) StateResponse {
	touched := make([]string, 0, len(registerform.Fields))
	for _, f := range m.Form.Touched() {
		touched = append(touched, string(f))
	}
	return StateResponse{
		Values:  m.Form.Values(),
		Errors:  m.Form.VisibleErrors().ToMap(),
		Touched: touched,
		Flags:   m.Flags.Snapshot(),
		Outcome: m.Outcome(),
	}
}
