// Package websocket is the gorilla/websocket transport backend.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shardgate/shardgate/internal/transport"
)

// Config holds connection tuning for one adapter.
type Config struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// Adapter implements transport.Adapter over a gorilla WebSocket
// connection. It is single-use: Open once, then Close.
type Adapter struct {
	cfg     Config
	handler transport.Handler
	logger  *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// New creates an adapter delivering events to handler.
func New(cfg Config, handler transport.Handler, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Open dials the gateway URL and starts the read loop.
func (a *Adapter) Open(ctx context.Context, url string) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return transport.ErrAlreadyClosed
	}
	if a.conn != nil {
		a.mu.Unlock()
		return errors.New("transport already open")
	}
	a.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: a.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed {
		// Closed while dialing; discard the connection quietly.
		a.mu.Unlock()
		conn.Close()
		return transport.ErrAlreadyClosed
	}
	a.conn = conn
	a.mu.Unlock()

	go a.readLoop(conn)

	a.logger.Debug("websocket connected", "url", url)
	a.handler.HandleOpen()

	return nil
}

// Send writes one text frame to the connection.
func (a *Adapter) Send(data []byte) error {
	a.mu.Lock()
	conn := a.conn
	closed := a.closed
	a.mu.Unlock()

	if conn == nil || closed {
		return transport.ErrNotConnected
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the connection down. No handler events fire after Close.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	conn := a.conn
	a.mu.Unlock()

	close(a.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// readLoop delivers frames to the handler until the connection dies.
// A read failure is classified: peer close frames carry a close code,
// anything else surfaces as a transport error.
func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Suppress notifications for locally initiated closes.
			select {
			case <-a.done:
				return
			default:
			}

			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				a.handler.HandleClose(ce.Code, ce.Text)
			} else {
				a.handler.HandleError(err)
			}
			return
		}

		select {
		case <-a.done:
			return
		default:
		}

		a.handler.HandleMessage(data)
	}
}
