package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectType  string
		expectError bool
	}{
		{
			name:       "audio delta",
			data:       `{"type":"response.audio.delta","delta":"AAECAw=="}`,
			expectType: EventAudioDelta,
		},
		{
			name:       "session created",
			data:       `{"type":"session.created","session":{"id":"sess_123"}}`,
			expectType: EventSessionCreated,
		},
		{
			name:       "unrecognized type is still parsed",
			data:       `{"type":"response.output_item.added"}`,
			expectType: "response.output_item.added",
		},
		{
			name:        "invalid json",
			data:        `{"type":`,
			expectError: true,
		},
		{
			name:        "missing type",
			data:        `{"delta":"AAECAw=="}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if ev.Type != tt.expectType {
				t.Errorf("Expected type %s, got %s", tt.expectType, ev.Type)
			}
			if string(ev.Raw) != tt.data {
				t.Error("Expected Raw to hold the full payload")
			}
		})
	}
}

func TestItemText(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		expect string
	}{
		{
			name:   "text content part",
			data:   `{"type":"conversation.item.created","item":{"content":[{"type":"text","text":"{\"intent\":\"greeting\",\"text\":\"hi\"}"}]}}`,
			expect: `{"intent":"greeting","text":"hi"}`,
		},
		{
			name:   "audio transcript part",
			data:   `{"type":"conversation.item.created","item":{"content":[{"type":"audio","transcript":"hello there"}]}}`,
			expect: "hello there",
		},
		{
			name:   "multiple parts joined",
			data:   `{"type":"conversation.item.created","item":{"content":[{"text":"a"},{"transcript":"b"}]}}`,
			expect: "a\nb",
		},
		{
			name:   "unknown item shape falls back to raw item",
			data:   `{"type":"conversation.item.created","item":{"weird":true}}`,
			expect: `"weird":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			got := ev.ItemText()
			if !strings.Contains(got, tt.expect) {
				t.Errorf("Expected item text to contain %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestSessionUpdateMessage(t *testing.T) {
	cfg := Config{Voice: "echo", Temperature: 0.2}
	msg := sessionUpdateMessage(cfg, "be brief", "awaiting_date")

	if msg["type"] != "session.update" {
		t.Errorf("Expected session.update type, got %v", msg["type"])
	}

	sess, ok := msg["session"].(map[string]any)
	if !ok {
		t.Fatal("Expected session payload")
	}
	if sess["input_audio_format"] != "g711_ulaw" || sess["output_audio_format"] != "g711_ulaw" {
		t.Error("Expected g711_ulaw audio formats on both directions")
	}
	if sess["voice"] != "echo" || sess["instructions"] != "be brief" || sess["state"] != "awaiting_date" {
		t.Errorf("Unexpected session payload: %+v", sess)
	}

	// The payload must serialize cleanly for the wire.
	if _, err := json.Marshal(msg); err != nil {
		t.Fatalf("session.update not serializable: %v", err)
	}
}

func TestControlMessages(t *testing.T) {
	if cancelMessage()["type"] != "response.cancel" {
		t.Error("Expected response.cancel control message")
	}
	msg := audioAppendMessage("AAEC")
	if msg["type"] != "input_audio_buffer.append" || msg["audio"] != "AAEC" {
		t.Errorf("Unexpected append message: %+v", msg)
	}
}
