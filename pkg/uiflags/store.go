// Package uiflags holds the two view flags shared by the page shell and the
// registration workflow: whether the loading spinner is visible and which
// form the auth view shows.
//
// The flags change only through the action methods on Store. Readers take a
// Snapshot or Subscribe to changes. A Store is created per view session and
// passed to whoever needs it; there is no package-level instance.
package uiflags

import (
	"log/slog"
	"sync"
)

// Flags is an immutable snapshot of the store.
type Flags struct {
	// SpinnerVisible is true while a provider call is in flight.
	SpinnerVisible bool `json:"spinner_visible"`
	// FormView selects the login form when true and the register form when false.
	FormView bool `json:"form_view"`
}

// Action names the mutation that produced a change, for listeners and logs.
type Action string

const (
	ActionShowSpinner Action = "showSpinner"
	ActionHideSpinner Action = "hideSpinner"
	ActionSetFormView Action = "setFormView"
)

// Listener receives the new flags after every action.
type Listener func(action Action, flags Flags)

// Store is a concurrency-safe container for Flags.
type Store struct {
	mu        sync.RWMutex
	flags     Flags
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store with both flags false.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// ShowSpinner makes the loading spinner visible.
func (s *Store) ShowSpinner() {
	s.apply(ActionShowSpinner, func(f *Flags) { f.SpinnerVisible = true })
}

// HideSpinner hides the loading spinner.
func (s *Store) HideSpinner() {
	s.apply(ActionHideSpinner, func(f *Flags) { f.SpinnerVisible = false })
}

// SetFormView switches the auth view between the login (true) and register (false) forms.
func (s *Store) SetFormView(visible bool) {
	s.apply(ActionSetFormView, func(f *Flags) { f.FormView = visible })
}

// Snapshot returns the current flags.
func (s *Store) Snapshot() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// Subscribe registers l for every subsequent action and returns a function
// that removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) apply(action Action, mutate func(*Flags)) {
	s.mu.Lock()
	mutate(&s.flags)
	flags := s.flags
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	slog.Debug("ui flags changed", "action", action, "spinner_visible", flags.SpinnerVisible, "form_view", flags.FormView)

	// listeners run outside the lock so they may read the store
	for _, l := range listeners {
		l(action, flags)
	}
}
