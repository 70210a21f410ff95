package signup

import (
	"sync"

	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/uiflags"
)

// Banner texts shown above the form.
const (
	BannerSuccess    = "Hienoa! Vahvistuslinkki on lähetetty sähköpostiisi."
	BannerEmailTaken = "Syöttämäsi sähköposti on jo käytössä."
	BannerGeneric    = "Rekisteröinti epäonnistui. Yritä myöhemmin uudelleen."

	// MsgEmailTaken is the field error attached to the email input.
	MsgEmailTaken = "Sähköposti käytössä"
)

// OutcomeKind is the state of a submission.
type OutcomeKind string

const (
	OutcomeIdle    OutcomeKind = "idle"
	OutcomePending OutcomeKind = "pending"
	OutcomeSuccess OutcomeKind = "success"
	OutcomeError   OutcomeKind = "error"
)

// Outcome is what the view shows about the last submission.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Terminal reports whether no further submission is accepted.
func (o Outcome) Terminal() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeError
}

// Mount is one mounted registration view: its form, its UI flags and the
// outcome of its submission.
type Mount struct {
	Form  *registerform.Form
	Flags *uiflags.Store

	mu         sync.Mutex
	outcome    Outcome
	generation uint64
}

// NewMount creates an idle mount.
func NewMount(form *registerform.Form, flags *uiflags.Store) *Mount {
	if form == nil {
		form = registerform.NewForm(nil)
	}
	if flags == nil {
		flags = uiflags.NewStore()
	}
	return &Mount{
		Form:    form,
		Flags:   flags,
		outcome: Outcome{Kind: OutcomeIdle},
	}
}

// Outcome returns the current outcome.
func (m *Mount) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Generation changes every time the mount is unmounted.
func (m *Mount) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Unmount invalidates any submission still waiting on the provider. Its
// result is dropped instead of being written to the form.
func (m *Mount) Unmount() {
	m.mu.Lock()
	m.generation++
	m.mu.Unlock()
}
