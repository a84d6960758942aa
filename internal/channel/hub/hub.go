// Package hub tracks websocket connections and the sessions they are bound to.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBufferFull is returned when a connection's send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
	// ErrNoConnection is returned when a session has no live connection.
	ErrNoConnection = errors.New("no active connection for session")
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Sessions maps session_id to set of connection IDs
	sessions map[string]map[string]bool

	unregister chan *Connection
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
	}
}

// Run processes unregistrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				h.unbind(conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Debug().Str("conn", conn.ID).Msg("connection unregistered")
		}
	}
}

// NewConnection wraps ws in a connection with a fresh id.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 256),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID] = conn
	if conn.SessionID != "" {
		h.bind(conn, conn.SessionID)
	}
	log.Debug().Str("conn", conn.ID).Msg("connection registered")
}

// Unregister unregisters a connection from the hub. It is a no-op once Run
// has returned.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BindSession binds a connection to a session, leaving any previous one.
// An unregistered connection cannot be bound.
func (h *Hub) BindSession(conn *Connection, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return ErrNoConnection
	}
	h.unbind(conn)
	h.bind(conn, sessionID)
	return nil
}

// SessionOf returns the session a connection is bound to.
func (h *Hub) SessionOf(conn *Connection) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.SessionID
}

func (h *Hub) bind(conn *Connection, sessionID string) {
	conn.SessionID = sessionID
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]bool)
	}
	h.sessions[sessionID][conn.ID] = true
}

func (h *Hub) unbind(conn *Connection) {
	if conn.SessionID == "" || h.sessions[conn.SessionID] == nil {
		return
	}
	delete(h.sessions[conn.SessionID], conn.ID)
	if len(h.sessions[conn.SessionID]) == 0 {
		delete(h.sessions, conn.SessionID)
	}
}

// SendToSession queues data on every connection of a session. It fails when
// the session has no connection or none could accept the message.
func (h *Hub) SendToSession(sessionID string, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	connIDs := h.sessions[sessionID]
	if len(connIDs) == 0 {
		return ErrNoConnection
	}

	delivered := 0
	for connID := range connIDs {
		conn, ok := h.connections[connID]
		if !ok {
			continue
		}
		select {
		case conn.Send <- data:
			delivered++
		default:
			// Buffer full, drop the connection
			log.Warn().Str("conn", connID).Msg("connection buffer full, closing")
			go h.Unregister(conn)
		}
	}
	if delivered == 0 {
		return ErrBufferFull
	}
	return nil
}

// SendJSONToSession sends a JSON message to all connections of a session.
func (h *Hub) SendJSONToSession(sessionID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToSession(sessionID, data)
}

// SendToConnection sends a message to a specific connection. Send is closed
// under h.mu once the connection is unregistered, so the check and the send
// both happen under the read lock.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.connections[conn.ID]; !ok {
		return ErrNoConnection
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasActiveConnections checks if a session has any active connections.
func (h *Hub) HasActiveConnections(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID]) > 0
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
