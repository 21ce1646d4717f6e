package telephony

import (
	"encoding/json"
	"fmt"
)

// Media-stream event names.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventClear     = "clear"
)

// Message is one JSON text frame on the media-stream WebSocket, in either
// direction. Only the fields relevant to the frame's event are set.
type Message struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
}

// StartPayload announces a new stream and carries the call identifiers.
type StartPayload struct {
	StreamSID string `json:"streamSid"`
	CallSID   string `json:"callSid"`
}

// MediaPayload carries one base64-encoded wire-audio frame.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// ParseMessage decodes one inbound text frame.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode telephony message: %w", err)
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("telephony message missing event field")
	}
	return &msg, nil
}

// MediaMessage builds an outbound audio frame addressed to a stream.
func MediaMessage(streamSID, payload string) Message {
	return Message{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     &MediaPayload{Payload: payload},
	}
}

// ClearMessage builds the flush command that drops any audio the provider
// has queued for playback on the stream.
func ClearMessage(streamSID string) Message {
	return Message{Event: EventClear, StreamSID: streamSID}
}
