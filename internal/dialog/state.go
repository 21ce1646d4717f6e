package dialog

import "fmt"

// State is the position of one call in the scripted flow.
type State int

const (
	// AwaitingGreeting: the call is connected, the agent has not yet greeted
	// the callee.
	AwaitingGreeting State = iota
	// AwaitingDate: the greeting is done, the agent may offer calendar slots
	// and ask for a date.
	AwaitingDate
	// Complete: a date was asked; absorbing for the lifetime of the call.
	Complete
)

// Intents recognized by the transition table. The deployment whitelist is
// configured separately; these are the intents the machine itself reacts to.
const (
	IntentGreeting = "greeting"
	IntentAskDate  = "ask_date"
)

func (s State) String() string {
	switch s {
	case AwaitingGreeting:
		return "awaiting_greeting"
	case AwaitingDate:
		return "awaiting_date"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ViolationError reports an intent that is recognized by the machine but
// inconsistent with the current state. Non-fatal: the caller logs it and the
// state stays unchanged.
type ViolationError struct {
	State  State
	Intent string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("intent %q not allowed in state %s", e.Intent, e.State)
}

// Advance applies one intent to the current state. It returns the resulting
// state and whether the machine moved forward. A recognized intent that does
// not match the transition table returns a *ViolationError with the state
// unchanged; an unrecognized intent is ignored without error.
func Advance(current State, intent string) (State, bool, error) {
	switch intent {
	case IntentGreeting:
		if current == AwaitingGreeting {
			return AwaitingDate, true, nil
		}
		return current, false, &ViolationError{State: current, Intent: intent}
	case IntentAskDate:
		if current == AwaitingDate {
			return Complete, true, nil
		}
		return current, false, &ViolationError{State: current, Intent: intent}
	default:
		return current, false, nil
	}
}
