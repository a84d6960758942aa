// Package ws serves the websocket conversational channel.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/channel"
	"github.com/xiaot623/gogo/alertlink/internal/channel/hub"
	"github.com/xiaot623/gogo/alertlink/internal/channel/protocol"
	"github.com/xiaot623/gogo/alertlink/internal/config"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

const handleTimeout = 30 * time.Second

// Server handles WebSocket connections.
type Server struct {
	cfg           *config.Config
	hub           *hub.Hub
	conversations channel.Conversations
	upgrader      websocket.Upgrader

	// Session ids handed out by this server; only these can be resumed.
	mu     sync.Mutex
	issued map[string]struct{}
}

// Ensure Server can deliver alerts.
var _ channel.Sender = (*Server)(nil)

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, conversations channel.Conversations) *Server {
	return &Server{
		cfg:           cfg,
		hub:           h,
		conversations: conversations,
		issued:        make(map[string]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the websocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade websocket")
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.WebSocket.MaxMessageBytes)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// Send delivers text to every connection of the session in addr.
func (s *Server) Send(ctx context.Context, addr domain.Address, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if addr.Channel != domain.ChannelWebSocket {
		return fmt.Errorf("%w: %q is not a websocket address", channel.ErrUnknownChannel, addr.String())
	}
	return s.hub.SendJSONToSession(addr.ID, newText(addr.ID, text))
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout()))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", conn.ID).Msg("websocket error")
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("conn", conn.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout()))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeHello:
		s.handleHello(conn, data)
	case protocol.TypeMessage:
		s.handleText(conn, data)
	default:
		s.sendError(conn, baseMsg.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleHello binds the connection to a new or resumed session.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	if s.cfg.WebSocket.APIKey != "" && msg.APIKey != s.cfg.WebSocket.APIKey {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeUnauthorized, "invalid api_key")
		return
	}

	sessionID := s.resumeOrIssue(msg.SessionID)
	if err := s.hub.BindSession(conn, sessionID); err != nil {
		log.Debug().Err(err).Str("conn", conn.ID).Msg("hello on closed connection")
		return
	}

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: sessionID,
		},
	}
	s.hub.SendJSONToConnection(conn, ack)

	log.Info().Str("session", sessionID).Msg("websocket session bound")
}

// resumeOrIssue returns requested when this server issued it, otherwise a
// new session id.
func (s *Server) resumeOrIssue(requested string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issued[requested]; ok {
		return requested
	}
	id := "sess_" + uuid.New().String()
	s.issued[id] = struct{}{}
	return id
}

// handleText feeds conversational text to the login flow. Messages of one
// connection are handled in order because the read loop waits here.
func (s *Server) handleText(conn *hub.Connection, data []byte) {
	var msg protocol.TextMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid message")
		return
	}

	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	reply := s.conversations.Handle(ctx, domain.NewAddress(domain.ChannelWebSocket, sessionID), msg.Text)
	if reply == "" {
		return
	}
	out := newText(sessionID, reply)
	out.RequestID = msg.RequestID
	if err := s.hub.SendJSONToSession(sessionID, out); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to send reply")
	}
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	}
	s.hub.SendJSONToConnection(conn, errMsg)
}

func newText(sessionID, text string) protocol.TextMessage {
	return protocol.TextMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeMessage,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Text: text,
	}
}
