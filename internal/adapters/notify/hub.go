package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/patabol/pkg/logger"
	"github.com/okian/patabol/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 1 * time.Minute

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	watcherBuffer = 64
)

// ErrHubClosed is returned by Serve after Close.
var ErrHubClosed = errors.New("notify: hub closed")

// Hub fans session feeds out to WebSocket watchers.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[*Watcher]struct{}
	closed   bool
	upgrader websocket.Upgrader
	log      logger.Logger
}

// Watcher is one WebSocket connection following a session.
type Watcher struct {
	ID      string
	code    string
	hub     *Hub
	conn    *websocket.Conn
	receive chan []byte
}

// NewHub creates a Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		watchers: make(map[string]map[*Watcher]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Feeds are read-only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.NewNop()
	}
	return h
}

// Serve upgrades the request and attaches a watcher to the session feed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, code string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	wt := &Watcher{
		ID:      uuid.NewString(),
		code:    code,
		hub:     h,
		conn:    conn,
		receive: make(chan []byte, watcherBuffer),
	}
	if !h.join(wt) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return ErrHubClosed
	}
	h.log.Debug(r.Context(), "watcher joined", logger.SessionCode(code), logger.String("watcher", wt.ID))
	go wt.writeEvents()
	go wt.readEvents()
	return nil
}

func (h *Hub) join(w *Watcher) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.watchers[w.code]
	if !ok {
		set = make(map[*Watcher]struct{})
		h.watchers[w.code] = set
	}
	set[w] = struct{}{}
	metrics.FeedWatchers(1)
	return true
}

func (h *Hub) leave(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(w)
}

// detachLocked removes w and closes its channel exactly once.
func (h *Hub) detachLocked(w *Watcher) {
	set, ok := h.watchers[w.code]
	if !ok {
		return
	}
	if _, ok := set[w]; !ok {
		return
	}
	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, w.code)
	}
	close(w.receive)
	metrics.FeedWatchers(-1)
}

// Watchers returns the number of watchers attached to code.
func (h *Hub) Watchers(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[code])
}

// Notify is a no-op: watchers follow sessions, not participants.
func (h *Hub) Notify(context.Context, []string, string) error { return nil }

// Publish sends item to every watcher of code. Watchers that cannot keep up
// are dropped. A FeedEnd item detaches every watcher after delivery.
func (h *Hub) Publish(_ context.Context, code string, item FeedItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode feed item: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers[code] {
		select {
		case w.receive <- data:
			metrics.RecordFeedDelivered("websocket")
		default:
			h.detachLocked(w)
		}
	}
	if item.Kind == FeedEnd {
		for w := range h.watchers[code] {
			h.detachLocked(w)
		}
	}
	return nil
}

// Close detaches every watcher and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.watchers {
		for w := range set {
			h.detachLocked(w)
		}
	}
}

func (w *Watcher) readEvents() {
	defer func() {
		w.hub.leave(w)
		_ = w.conn.Close()
	}()
	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.hub.log.Debug(context.Background(), "watcher read failed",
					logger.SessionCode(w.code), logger.Error(err))
			}
			return
		}
	}
}

func (w *Watcher) writeEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.hub.leave(w)
		_ = w.conn.Close()
	}()
	for {
		select {
		case message, ok := <-w.receive:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = w.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
