package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/shardgate/shardgate/internal/transport"
)

// mockServer creates a test WebSocket server.
func mockServer(t *testing.T, handler func(*gws.Conn)) *httptest.Server {
	upgrader := gws.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// recordingHandler collects transport events for assertions.
type recordingHandler struct {
	mu       sync.Mutex
	opened   bool
	messages [][]byte
	closes   []int
	errors   []error
	closeCh  chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{closeCh: make(chan struct{}, 4)}
}

func (h *recordingHandler) HandleOpen() {
	h.mu.Lock()
	h.opened = true
	h.mu.Unlock()
}

func (h *recordingHandler) HandleMessage(data []byte) {
	h.mu.Lock()
	h.messages = append(h.messages, data)
	h.mu.Unlock()
}

func (h *recordingHandler) HandleClose(code int, reason string) {
	h.mu.Lock()
	h.closes = append(h.closes, code)
	h.mu.Unlock()
	h.closeCh <- struct{}{}
}

func (h *recordingHandler) HandleError(err error) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
	h.closeCh <- struct{}{}
}

func TestAdapterOpenAndReceive(t *testing.T) {
	server := mockServer(t, func(conn *gws.Conn) {
		conn.WriteMessage(gws.TextMessage, []byte(`{"op":10}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := newRecordingHandler()
	a := New(DefaultConfig(), h, nil)

	if err := a.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	time.Sleep(50 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		t.Error("HandleOpen never fired")
	}
	if len(h.messages) != 1 || string(h.messages[0]) != `{"op":10}` {
		t.Errorf("messages = %q", h.messages)
	}
}

func TestAdapterSend(t *testing.T) {
	received := make(chan []byte, 1)
	server := mockServer(t, func(conn *gws.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg
	})
	defer server.Close()

	h := newRecordingHandler()
	a := New(DefaultConfig(), h, nil)

	if err := a.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if err := a.Send([]byte(`{"op":1,"d":null}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != `{"op":1,"d":null}` {
			t.Errorf("server received %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestAdapterSendBeforeOpen(t *testing.T) {
	a := New(DefaultConfig(), newRecordingHandler(), nil)
	if err := a.Send([]byte("x")); err != transport.ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestAdapterDeliversPeerCloseCode(t *testing.T) {
	server := mockServer(t, func(conn *gws.Conn) {
		conn.WriteControl(
			gws.CloseMessage,
			gws.FormatCloseMessage(4004, "Authentication failed."),
			time.Now().Add(time.Second),
		)
		// Give the close frame time to flush before the deferred
		// conn.Close tears the TCP stream down.
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	h := newRecordingHandler()
	a := New(DefaultConfig(), h, nil)

	if err := a.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	select {
	case <-h.closeCh:
	case <-time.After(time.Second):
		t.Fatal("close event never delivered")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closes) != 1 || h.closes[0] != 4004 {
		t.Errorf("closes = %v, want [4004]", h.closes)
	}
}

func TestAdapterDeliversErrorOnDrop(t *testing.T) {
	server := mockServer(t, func(conn *gws.Conn) {
		// Tear the connection down without a close frame.
		conn.UnderlyingConn().Close()
	})
	defer server.Close()

	h := newRecordingHandler()
	a := New(DefaultConfig(), h, nil)

	if err := a.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	select {
	case <-h.closeCh:
	case <-time.After(time.Second):
		t.Fatal("error event never delivered")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errors) == 0 {
		t.Error("expected a transport error")
	}
}

func TestAdapterCloseSuppressesEvents(t *testing.T) {
	server := mockServer(t, func(conn *gws.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	h := newRecordingHandler()
	a := New(DefaultConfig(), h, nil)

	if err := a.Open(context.Background(), wsURL(server)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.closes) != 0 || len(h.errors) != 0 {
		t.Errorf("events after local close: closes=%v errors=%v", h.closes, h.errors)
	}
}

func TestAdapterDialFailure(t *testing.T) {
	a := New(DefaultConfig(), newRecordingHandler(), nil)
	err := a.Open(context.Background(), "ws://127.0.0.1:1/")
	if err == nil {
		t.Fatal("expected dial error")
	}
}
