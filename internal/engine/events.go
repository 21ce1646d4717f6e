package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Server event types consumed by the relay.
const (
	EventSessionCreated = "session.created"
	EventSessionUpdated = "session.updated"
	EventAudioDelta     = "response.audio.delta"
	EventItemCreated    = "conversation.item.created"
	EventSpeechStarted  = "input_audio_buffer.speech_started"
)

// Server event types that are logged at info level when observed. Everything
// else unrecognized is logged at debug and ignored.
var LoggedEventTypes = map[string]struct{}{
	"response.content.done":             {},
	"rate_limits.updated":               {},
	"response.done":                     {},
	"input_audio_buffer.committed":      {},
	"input_audio_buffer.speech_stopped": {},
	EventSpeechStarted:                  {},
	EventSessionCreated:                 {},
}

// Client event types sent to the engine.
const (
	eventSessionUpdate  = "session.update"
	eventAudioAppend    = "input_audio_buffer.append"
	eventResponseCancel = "response.cancel"
)

// Event is one decoded server event. Raw always holds the full payload;
// the typed fields are populated according to Type.
type Event struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	Delta   string          `json:"delta,omitempty"`
	Session *SessionInfo    `json:"session,omitempty"`
	Item    json.RawMessage `json:"item,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// SessionInfo carries the engine-assigned session identity.
type SessionInfo struct {
	ID string `json:"id"`
}

// ParseEvent decodes a raw server frame into an Event.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode engine event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("engine event missing type field")
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return &ev, nil
}

// ItemText extracts the conversational text carried by a
// conversation.item.created event. The item structure is engine-dependent,
// so every known text-bearing field is tried before falling back to the raw
// item payload.
func (ev *Event) ItemText() string {
	if len(ev.Item) == 0 {
		return string(ev.Raw)
	}

	var item struct {
		Content []struct {
			Type       string `json:"type"`
			Text       string `json:"text"`
			Transcript string `json:"transcript"`
		} `json:"content"`
	}
	if err := json.Unmarshal(ev.Item, &item); err == nil {
		var parts []string
		for _, c := range item.Content {
			switch {
			case c.Text != "":
				parts = append(parts, c.Text)
			case c.Transcript != "":
				parts = append(parts, c.Transcript)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return string(ev.Item)
}
