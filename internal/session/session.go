package session

import (
	"encoding/json"
	"time"

	"github.com/Dropkick0/ai-call-agent/internal/dialog"
	"github.com/Dropkick0/ai-call-agent/internal/guardrail"
)

// TranscriptEvent is one conversational turn emitted by the speech engine.
// Events are append-only and never mutated after being added to a session.
type TranscriptEvent struct {
	Raw       json.RawMessage   `json:"raw"`
	Intent    *guardrail.Intent `json:"intent,omitempty"`
	Verdict   guardrail.Verdict `json:"verdict"`
	Timestamp time.Time         `json:"timestamp"`
}

// CallSession is the per-call state shared between the two relay pumps.
//
// Ownership: CallID, StreamID, EngineSessionID and StartTime are written
// once by the inbound pump before the session is published to the registry;
// everything else is mutated only by the outbound pump. No field is written
// by both pumps concurrently, so the struct carries no lock.
type CallSession struct {
	CallID          string
	StreamID        string
	EngineSessionID string
	StartTime       time.Time
	EndTime         time.Time

	State       dialog.State
	Transcripts []TranscriptEvent

	GuardrailRejects uint64
	PolicyRejects    uint64
	StateViolations  uint64
	CalendarErrors   uint64

	// Latencies are per-turn delays between a conversational turn and the
	// first audio delta that follows it.
	Latencies []time.Duration
}

// New creates an unpublished session. Identifiers and start time are filled
// in by the inbound pump when the telephony side signals stream start.
func New() *CallSession {
	return &CallSession{State: dialog.AwaitingGreeting}
}

// Begin records the stream identifiers and start timestamp. Must be called
// before the session is registered.
func (s *CallSession) Begin(callID, streamID string, start time.Time) {
	s.CallID = callID
	s.StreamID = streamID
	s.StartTime = start
}

// AppendTranscript adds one turn to the session transcript.
func (s *CallSession) AppendTranscript(ev TranscriptEvent) {
	s.Transcripts = append(s.Transcripts, ev)
}

// Duration returns the call duration, using the current time while the call
// is still active.
func (s *CallSession) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Info returns a monitoring snapshot of the session.
func (s *CallSession) Info() Info {
	return Info{
		CallID:           s.CallID,
		StreamID:         s.StreamID,
		State:            s.State.String(),
		StartTime:        s.StartTime,
		Duration:         s.Duration(),
		Transcripts:      len(s.Transcripts),
		GuardrailRejects: s.GuardrailRejects,
		PolicyRejects:    s.PolicyRejects,
		StateViolations:  s.StateViolations,
		CalendarErrors:   s.CalendarErrors,
	}
}

// Info is session information exposed on the monitoring API.
type Info struct {
	CallID           string        `json:"call_id"`
	StreamID         string        `json:"stream_id"`
	State            string        `json:"state"`
	StartTime        time.Time     `json:"start_time"`
	Duration         time.Duration `json:"duration"`
	Transcripts      int           `json:"transcripts"`
	GuardrailRejects uint64        `json:"guardrail_rejects"`
	PolicyRejects    uint64        `json:"policy_rejects"`
	StateViolations  uint64        `json:"state_violations"`
	CalendarErrors   uint64        `json:"calendar_errors"`
}
