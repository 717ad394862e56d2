// Package sessionstest provides an in-memory sessions.Sessions for tests of
// the programs that drive delivery sessions.
package sessionstest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"reuseit/delivery/flows"
	"reuseit/delivery/sessions"
	"reuseit/delivery/types"
)

// Call is one recorded signal
type Call struct {
	ID   string
	Name string
	Arg  interface{}
}

// Fake applies signals synchronously with the same rules as the workflow,
// without timers: a confirmed session gets Code and stays confirmed.
type Fake struct {
	// Code is the confirmation code handed out on confirm
	Code string

	mu        sync.Mutex
	seq       int
	states    map[string]types.WorkflowState
	cancelled map[string]bool
	calls     []Call
}

// New returns an empty Fake
func New() *Fake {
	return &Fake{
		Code:      "554-129",
		states:    make(map[string]types.WorkflowState),
		cancelled: make(map[string]bool),
	}
}

func (f *Fake) Start(_ context.Context, input types.WorkflowInput) (string, error) {
	cfg, err := flows.For(input.Flow)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if input.SessionID == "" {
		f.seq++
		input.SessionID = fmt.Sprintf("session-%d", f.seq)
	}
	f.states[input.SessionID] = cfg.NewState(input)
	return input.SessionID, nil
}

func (f *Fake) State(_ context.Context, id string) (types.WorkflowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, cfg, err := f.lookup(id)
	if err != nil {
		return st, err
	}
	return cfg.Annotate(st), nil
}

func (f *Fake) Valid(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, cfg, err := f.lookup(id)
	if err != nil {
		return false, err
	}
	return cfg.CanConfirm(st), nil
}

func (f *Fake) Signal(_ context.Context, id, name string, arg interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, cfg, err := f.lookup(id)
	if err != nil {
		return err
	}
	f.calls = append(f.calls, Call{ID: id, Name: name, Arg: arg})

	switch name {
	case types.SignalSelectOption:
		if st.Phase == types.PhaseSelecting {
			if next, err := cfg.Select(st, arg.(types.DeliveryOption)); err == nil {
				st = next
			}
		}
	case types.SignalSetField:
		if st.Phase == types.PhaseSelecting {
			if next, err := cfg.SetField(st, arg.(types.FieldUpdate)); err == nil {
				st = next
			}
		}
	case types.SignalOpenPicker:
		if st.Phase == types.PhaseSelecting && st.SelectedOption.NeedsLocation() {
			st.Phase = types.PhaseAwaitingLocationPick
			st.PickerOption = st.SelectedOption
		}
	case types.SignalLocationPicked:
		if st.Phase == types.PhaseAwaitingLocationPick {
			res := arg.(types.LocationResult)
			if !res.Cancelled && strings.TrimSpace(res.Description) != "" {
				st.LocationDescription = res.Description
			}
			st.Phase = types.PhaseSelecting
			st.PickerOption = ""
		}
	case types.SignalConfirm:
		if cfg.CanConfirm(st) {
			st.Phase = types.PhaseConfirmed
			st.ConfirmationCode = f.Code
			st.Confirmation = cfg.Describe(st.SelectedOption)
		}
	default:
		return fmt.Errorf("unknown signal %q", name)
	}
	f.states[id] = st
	return nil
}

func (f *Fake) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, _, err := f.lookup(id); err != nil {
		return err
	}
	f.cancelled[id] = true
	return nil
}

// Result reports a confirmed session as finished with its terminal route
func (f *Fake) Result(_ context.Context, id string) (types.WorkflowResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, _, err := f.lookup(id)
	if err != nil {
		return types.WorkflowResult{}, err
	}
	res := types.WorkflowResult{SessionID: id, Flow: st.Flow, Option: st.SelectedOption}
	if st.Phase != types.PhaseConfirmed {
		res.Abandoned = true
		return res, nil
	}
	res.ConfirmationCode = st.ConfirmationCode
	res.Route = flows.TerminalRoute(st.SelectedOption)
	return res, nil
}

// Calls returns the recorded signals
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Cancelled reports whether Cancel was called for id
func (f *Fake) Cancelled(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled[id]
}

func (f *Fake) lookup(id string) (types.WorkflowState, flows.Config, error) {
	st, ok := f.states[id]
	if !ok || f.cancelled[id] {
		return st, flows.Config{}, fmt.Errorf("session %s: %w", id, sessions.ErrNotFound)
	}
	cfg, err := flows.For(st.Flow)
	return st, cfg, err
}

var _ sessions.Sessions = (*Fake)(nil)
