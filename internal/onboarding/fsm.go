// Package onboarding tracks where a user is in the first-run flow and keeps
// their display preferences.
package onboarding

import (
	"errors"
	"fmt"
)

type State string

const (
	StateLogin        State = "login"
	StateSetupName    State = "setup_name"
	StateIntroduction State = "introduction"
	StateHome         State = "home"
)

type Event string

const (
	EventNameSet          Event = "name_set"
	EventIntroductionDone Event = "introduction_done"
	EventSignedOut        Event = "signed_out"
)

var (
	ErrUnknownEvent      = errors.New("onboarding: unknown event")
	ErrInvalidTransition = errors.New("onboarding: event not allowed in current state")
)

var transitions = map[State]map[Event]State{
	StateSetupName:    {EventNameSet: StateIntroduction},
	StateIntroduction: {EventIntroductionDone: StateHome},
}

func ParseEvent(s string) (Event, error) {
	switch ev := Event(s); ev {
	case EventNameSet, EventIntroductionDone, EventSignedOut:
		return ev, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Transition returns the state reached from from on ev. signed_out is accepted anywhere.
func Transition(from State, ev Event) (State, error) {
	if ev == EventSignedOut {
		return StateLogin, nil
	}
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}

// Facts are the inputs that decide where a session lands.
type Facts struct {
	SignedIn  bool
	Completed bool
	IsNewUser bool
	HasName   bool
}

// Resolve picks the starting state. A returning user skips onboarding.
func Resolve(f Facts) State {
	switch {
	case !f.SignedIn:
		return StateLogin
	case f.Completed, !f.IsNewUser:
		return StateHome
	case f.HasName:
		return StateIntroduction
	default:
		return StateSetupName
	}
}
