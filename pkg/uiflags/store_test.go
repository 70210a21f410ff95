package uiflags

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_InitialFlags(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Flags{}, s.Snapshot())
}

func TestStore_ActionsAreIndependent(t *testing.T) {
	s := NewStore()

	s.ShowSpinner()
	assert.Equal(t, Flags{SpinnerVisible: true}, s.Snapshot())

	s.SetFormView(true)
	assert.Equal(t, Flags{SpinnerVisible: true, FormView: true}, s.Snapshot())

	s.HideSpinner()
	assert.Equal(t, Flags{FormView: true}, s.Snapshot())

	s.SetFormView(false)
	assert.Equal(t, Flags{}, s.Snapshot())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()

	var got []Action
	var spinner []bool
	cancel := s.Subscribe(func(a Action, f Flags) {
		got = append(got, a)
		spinner = append(spinner, f.SpinnerVisible)
	})

	s.ShowSpinner()
	s.HideSpinner()
	cancel()
	s.ShowSpinner()

	assert.Equal(t, []Action{ActionShowSpinner, ActionHideSpinner}, got)
	assert.Equal(t, []bool{true, false}, spinner)

	// cancel twice is harmless
	cancel()
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := NewStore()
	var seen Flags
	s.Subscribe(func(_ Action, _ Flags) {
		seen = s.Snapshot()
	})
	s.SetFormView(true)
	assert.True(t, seen.FormView)
}

func TestStore_ConcurrentUse(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ShowSpinner()
			s.HideSpinner()
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.False(t, s.Snapshot().SpinnerVisible)
}
