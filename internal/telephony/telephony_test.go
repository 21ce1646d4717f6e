package telephony

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectEvent string
		expectError bool
	}{
		{
			name:        "start message",
			data:        `{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1"}}`,
			expectEvent: EventStart,
		},
		{
			name:        "media message",
			data:        `{"event":"media","media":{"payload":"AAEC"}}`,
			expectEvent: EventMedia,
		},
		{
			name:        "stop message",
			data:        `{"event":"stop"}`,
			expectEvent: EventStop,
		},
		{
			name:        "invalid json",
			data:        `{"event":`,
			expectError: true,
		},
		{
			name:        "missing event",
			data:        `{"media":{"payload":"AAEC"}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if msg.Event != tt.expectEvent {
				t.Errorf("Expected event %s, got %s", tt.expectEvent, msg.Event)
			}
		})
	}
}

func TestOutboundMessageShapes(t *testing.T) {
	media, err := json.Marshal(MediaMessage("MZ7", "AAEC"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(media) != `{"event":"media","streamSid":"MZ7","media":{"payload":"AAEC"}}` {
		t.Errorf("Unexpected media frame: %s", media)
	}

	flush, err := json.Marshal(ClearMessage("MZ7"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(flush) != `{"event":"clear","streamSid":"MZ7"}` {
		t.Errorf("Unexpected clear frame: %s", flush)
	}
}

func TestOutgoingCallTwiML(t *testing.T) {
	doc, err := OutgoingCallTwiML("example.ngrok.io")
	if err != nil {
		t.Fatalf("OutgoingCallTwiML failed: %v", err)
	}

	for _, want := range []string{
		"<Response>",
		"<Say>This call may be recorded",
		`<Pause length="1"/>`,
		`<Stream url="wss://example.ngrok.io/media-stream"/>`,
		"</Response>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected TwiML to contain %q, got:\n%s", want, doc)
		}
	}
}

func TestPlaceCall(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA_test_123"}`))
	}))
	defer srv.Close()

	client := NewRestClient(RestConfig{
		AccountSID: "AC1",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    srv.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sid, err := client.PlaceCall(context.Background(), "+15552223333", "https://example.com/outgoing-call")
	if err != nil {
		t.Fatalf("PlaceCall failed: %v", err)
	}
	if sid != "CA_test_123" {
		t.Errorf("Expected sid CA_test_123, got %s", sid)
	}
	if gotPath != "/Accounts/AC1/Calls.json" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotAuth != "AC1:secret" {
		t.Errorf("Unexpected auth %s", gotAuth)
	}
	if gotForm["To"][0] != "+15552223333" || gotForm["From"][0] != "+15550001111" {
		t.Errorf("Unexpected form: %v", gotForm)
	}
}

func TestPlaceCallErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	client := NewRestClient(RestConfig{
		AccountSID: "AC1",
		AuthToken:  "wrong",
		FromNumber: "+15550001111",
		BaseURL:    srv.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := client.PlaceCall(context.Background(), "+15552223333", "https://example.com/cb"); err == nil {
		t.Fatal("Expected error for rejected request")
	}
}
