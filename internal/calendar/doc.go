// Package calendar supplies free time slots for the scheduling
// conversation. Busy intervals come from the Google Calendar free/busy API;
// slot computation itself is a pure function so availability logic is
// testable without the remote service. Lookup failures degrade to an empty
// slot list, never an error surfaced to the call.
package calendar
