package ws

import (
	"context"

	"github.com/coder/websocket"
)

// Transport abstracts the underlying socket so the hub can be exercised in
// tests without real network connections.
type Transport interface {
	// Read blocks until the next frame arrives or ctx is done.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one frame.
	Write(ctx context.Context, data []byte) error
	// Close terminates the connection with a status code and reason.
	Close(code int, reason string) error
}

type wsTransport struct {
	conn *websocket.Conn
}

// NewTransport wraps an accepted websocket connection.
func NewTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(code int, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
