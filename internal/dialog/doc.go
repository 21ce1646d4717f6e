// Package dialog defines the scripted conversation state machine. State
// advances monotonically on accepted intents and never skips a step; an
// intent that does not match the transition table is a state violation that
// leaves the state unchanged.
package dialog
