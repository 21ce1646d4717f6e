package telephony

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps the media-stream WebSocket. Reads are single-consumer (the
// relay's inbound pump); writes are serialized so the outbound pump and
// barge-in handling can share the socket.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewConn wraps an upgraded WebSocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadMessage blocks until the next text frame arrives.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

// WriteJSON sends one JSON text frame.
func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Close shuts the connection down. Safe to call from either pump and more
// than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
	})
	return nil
}
