package dialog

import (
	"errors"
	"testing"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name            string
		current         State
		intent          string
		expectState     State
		expectAdvanced  bool
		expectViolation bool
	}{
		{
			name:           "greeting from awaiting_greeting",
			current:        AwaitingGreeting,
			intent:         IntentGreeting,
			expectState:    AwaitingDate,
			expectAdvanced: true,
		},
		{
			name:           "ask_date from awaiting_date",
			current:        AwaitingDate,
			intent:         IntentAskDate,
			expectState:    Complete,
			expectAdvanced: true,
		},
		{
			name:            "ask_date too early is a violation",
			current:         AwaitingGreeting,
			intent:          IntentAskDate,
			expectState:     AwaitingGreeting,
			expectViolation: true,
		},
		{
			name:            "repeated greeting is a violation",
			current:         AwaitingDate,
			intent:          IntentGreeting,
			expectState:     AwaitingDate,
			expectViolation: true,
		},
		{
			name:            "complete is absorbing for greeting",
			current:         Complete,
			intent:          IntentGreeting,
			expectState:     Complete,
			expectViolation: true,
		},
		{
			name:            "complete is absorbing for ask_date",
			current:         Complete,
			intent:          IntentAskDate,
			expectState:     Complete,
			expectViolation: true,
		},
		{
			name:        "unrecognized intent is ignored",
			current:     AwaitingGreeting,
			intent:      "confirm_time",
			expectState: AwaitingGreeting,
		},
		{
			name:        "empty intent is ignored",
			current:     AwaitingDate,
			intent:      "",
			expectState: AwaitingDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, advanced, err := Advance(tt.current, tt.intent)

			if next != tt.expectState {
				t.Errorf("Expected state %s, got %s", tt.expectState, next)
			}
			if advanced != tt.expectAdvanced {
				t.Errorf("Expected advanced=%v, got %v", tt.expectAdvanced, advanced)
			}
			if tt.expectViolation {
				var violation *ViolationError
				if !errors.As(err, &violation) {
					t.Errorf("Expected *ViolationError, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

// The full scripted flow is monotonic and never skips a state.
func TestAdvanceSequenceIsMonotonic(t *testing.T) {
	state := AwaitingGreeting
	for _, intent := range []string{IntentGreeting, IntentAskDate} {
		next, advanced, err := Advance(state, intent)
		if err != nil {
			t.Fatalf("Unexpected violation at %s: %v", state, err)
		}
		if !advanced {
			t.Fatalf("Expected forward transition from %s on %q", state, intent)
		}
		if next < state || next-state != 1 {
			t.Fatalf("Transition %s -> %s skipped or went backwards", state, next)
		}
		state = next
	}
	if state != Complete {
		t.Errorf("Expected final state complete, got %s", state)
	}
}
