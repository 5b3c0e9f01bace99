package lanyard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
)

const (
	// Time allowed to write a message to the relay.
	writeWait = 10 * time.Second

	// Maximum inbound message size. Presence payloads with activities and
	// spotify blocks stay well under this.
	maxMessageSize = 64 << 10
)

// Conn is one open relay connection. ReadFrame returns a KindMalformed error
// for undecodable messages; the connection remains usable after one.
type Conn interface {
	ReadFrame() (Frame, error)
	WriteFrame(Frame) error
	Close() error
}

// Dialer opens relay connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the relay with gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	const op = "lanyard dial"
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = d.HandshakeTimeout
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = 30 * time.Second
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, clients.Transient(op, fmt.Errorf("failed to connect to relay (status: %d): %w", resp.StatusCode, err))
		}
		return nil, clients.Transient(op, fmt.Errorf("failed to connect to relay: %w", err))
	}
	conn.SetReadLimit(maxMessageSize)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
	// gorilla allows one concurrent writer; heartbeats and the subscribe
	// frame come from different goroutines.
	writeMu sync.Mutex
}

func (c *wsConn) ReadFrame() (Frame, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return Frame{}, clients.Transient("lanyard read", err)
	}
	return DecodeFrame(raw)
}

func (c *wsConn) WriteFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(f); err != nil {
		return clients.Transient("lanyard write", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
