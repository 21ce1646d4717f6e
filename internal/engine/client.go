package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config contains engine connection configuration.
type Config struct {
	URL         string
	Model       string
	APIKey      string
	Voice       string
	Temperature float64
	Timeout     time.Duration
}

// Client is a WebSocket connection to the engine's realtime API. Reads are
// single-consumer (the relay's outbound pump); writes are serialized
// internally so both pumps may send control messages concurrently.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	cfg    Config

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the engine's realtime endpoint with authenticated
// headers.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	url := fmt.Sprintf("%s?model=%s", cfg.URL, cfg.Model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: cfg.Timeout}

	logger.Info("connecting to engine",
		slog.String("url", cfg.URL),
		slog.String("model", cfg.Model),
	)

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("engine dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("engine dial failed: %w", err)
	}

	logger.Info("connected to engine")
	return &Client{conn: conn, logger: logger, cfg: cfg}, nil
}

// ReadEvent blocks until the next server event arrives. Malformed frames
// are dropped with a warning; only transport failures surface as errors.
func (c *Client) ReadEvent() (*Event, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ev, err := ParseEvent(data)
		if err != nil {
			c.logger.Warn("dropping malformed engine frame", slog.String("error", err.Error()))
			continue
		}
		return ev, nil
	}
}

// SendSessionUpdate (re-)issues the engine's behavioral instructions. Sent
// once at session start and again on every forward state transition.
func (c *Client) SendSessionUpdate(instructions, state string) error {
	return c.writeJSON(sessionUpdateMessage(c.cfg, instructions, state))
}

// AppendAudio forwards one base64-encoded audio payload into the engine's
// input buffer.
func (c *Client) AppendAudio(payload string) error {
	return c.writeJSON(audioAppendMessage(payload))
}

// CancelResponse aborts the engine's in-flight generation. Call-scoped: the
// connection stays open for the next turn.
func (c *Client) CancelResponse() error {
	return c.writeJSON(cancelMessage())
}

// Close shuts the connection down. Safe to call from either pump and more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		_ = c.conn.Close()
		c.logger.Info("engine connection closed")
	})
	return nil
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func sessionUpdateMessage(cfg Config, instructions, state string) map[string]any {
	return map[string]any{
		"type": eventSessionUpdate,
		"session": map[string]any{
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"voice":               cfg.Voice,
			"instructions":        instructions,
			"modalities":          []string{"text", "audio"},
			"temperature":         cfg.Temperature,
			"state":               state,
		},
	}
}

func audioAppendMessage(payload string) map[string]any {
	return map[string]any{
		"type":  eventAudioAppend,
		"audio": payload,
	}
}

func cancelMessage() map[string]string {
	return map[string]string{"type": eventResponseCancel}
}
