package bridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	// Outbound messages queued per client before it is dropped
	sendBuffer = 32
)

// Message types sent to clients
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
	MessageError    = "error"
)

// Message is what the bridge sends over the WebSocket.
type Message struct {
	Type    string             `json:"type"`
	State   *StateView         `json:"state,omitempty"`
	Entries []session.LogEntry `json:"entries,omitempty"`
	Action  string             `json:"action,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Request is what clients send.
type Request struct {
	Action string `json:"action"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is a LAN tool; any origin may watch the session.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub tracks the connected clients.
type hub struct {
	ctl Controller

	mu      sync.Mutex
	clients map[string]*client
}

func newHub(ctl Controller) *hub {
	return &hub{ctl: ctl, clients: make(map[string]*client)}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		logging.Info("Closing client", zap.String("client_id", id))
		_ = c.conn.Close()
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	updates, release := h.ctl.Subscribe()
	c := &client{
		id:      uuid.NewString(),
		remote:  r.RemoteAddr,
		conn:    conn,
		ctl:     h.ctl,
		send:    make(chan Message, sendBuffer),
		updates: updates,
		release: release,
		done:    make(chan struct{}),
	}
	h.add(c)
	logging.LogConnection(c.remote, "websocket_opened")

	go c.writePump()
	c.readPump()

	h.remove(c)
	logging.LogConnection(c.remote, "websocket_closed")
}

// client is one WebSocket connection. writePump is the only writer.
type client struct {
	id     string
	remote string
	conn   *websocket.Conn
	ctl    Controller

	send    chan Message
	updates <-chan session.Update
	release func()
	done    chan struct{}
	once    sync.Once

	sent int // log entries already delivered
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.release()
		_ = c.conn.Close()
	})
}

// readPump reads action requests until the connection fails.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		c.handle(req)
	}
}

func (c *client) handle(req Request) {
	action, err := session.ParseAction(req.Action)
	if err == nil {
		err = c.ctl.Do(action)
	}
	if err == nil {
		logging.Info("Action accepted", zap.String("client_id", c.id), zap.String("action", req.Action))
		return
	}

	select {
	case c.send <- Message{Type: MessageError, Action: req.Action, Error: err.Error()}:
	case <-c.done:
	}
}

// writePump sends the initial snapshot, then updates, replies and pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	if !c.write(c.next(MessageSnapshot)) {
		return
	}

	for {
		select {
		case _, ok := <-c.updates:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if !c.write(c.next(MessageUpdate)) {
				return
			}
		case msg := <-c.send:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// next builds a message from the current snapshot plus any log lines the
// client has not seen. Updates may be coalesced; the log catches up here.
func (c *client) next(kind string) Message {
	view := viewOf(c.ctl.Snapshot())
	entries := c.ctl.LogSince(c.sent)
	c.sent += len(entries)
	return Message{Type: kind, State: &view, Entries: entries}
}

func (c *client) write(msg Message) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		logging.Debug("WebSocket write failed", zap.String("client_id", c.id), zap.Error(err))
		return false
	}
	if logging.GetLogger().Core().Enabled(zap.DebugLevel) {
		if b, err := json.Marshal(msg); err == nil {
			logging.Debug("WebSocket message sent", zap.String("client_id", c.id), zap.ByteString("json", b))
		}
	}
	return true
}
