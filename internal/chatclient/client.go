// Package chatclient is a terminal client for the websocket chat channel.
package chatclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/alertlink/internal/channel/protocol"
)

// Client represents a WebSocket client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
}

// Dial connects to the server.
func Dial(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// SessionID returns the session bound by Hello.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Close closes the client connection.
func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

// Hello binds the connection to sessionID (or a new session when empty) and
// waits for hello_ack.
func (c *Client) Hello(sessionID, apiKey string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		APIKey: apiKey,
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}

	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		_ = json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}

	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = base.SessionID
	return nil
}

// SendText sends one line of conversation.
func (c *Client) SendText(text string) error {
	return c.conn.WriteJSON(protocol.TextMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeMessage,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		Text: text,
	})
}

// Event is one message received from the server.
type Event struct {
	Text  string
	Error *protocol.ErrorMessage
}

// ReadMessages delivers server messages to fn until the connection closes.
// A normal close returns nil.
func (c *Client) ReadMessages(fn func(Event)) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var base protocol.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			continue
		}

		switch base.Type {
		case protocol.TypeMessage:
			var msg protocol.TextMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				fn(Event{Text: msg.Text})
			}
		case protocol.TypeError:
			var msg protocol.ErrorMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				fn(Event{Error: &msg})
			}
		}
	}
}
