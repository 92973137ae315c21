package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is the duplex transport carrying audio, text, and control
// frames. Production uses a WebSocket; tests inject a fake.
type Channel interface {
	// SendJSON serializes and writes one frame.
	SendJSON(v any) error

	// ReadMessage blocks for the next inbound frame.
	ReadMessage() ([]byte, error)

	// Close shuts the channel down with a normal close code.
	Close() error
}

// Dialer opens a channel to the given URL.
type Dialer func(ctx context.Context, url string) (Channel, error)

// DialWebSocket is the production dialer.
func DialWebSocket(ctx context.Context, url string) (Channel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	return &wsChannel{conn: conn}, nil
}

// wsChannel wraps a gorilla connection. Writes are serialized; the
// websocket package allows only one concurrent writer.
type wsChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsChannel) SendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	c.mu.Unlock()
	return c.conn.Close()
}

var _ Channel = (*wsChannel)(nil)
