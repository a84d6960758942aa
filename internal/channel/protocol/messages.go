// Package protocol defines the websocket message protocol between chat
// clients and the alertlink websocket channel.
package protocol

// Message types from client to server
const (
	TypeHello   = "hello"
	TypeMessage = "message"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeError    = "error"
	// TypeMessage is also used for replies and alerts.
)

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeSessionRequired = "session_required"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage is sent by the client to bind the connection to a session.
// An empty SessionID asks the server to allocate one.
type HelloMessage struct {
	BaseMessage
	APIKey string `json:"api_key,omitempty"`
}

// HelloAckMessage confirms the session the connection is bound to.
type HelloAckMessage struct {
	BaseMessage
}

// TextMessage carries conversational text in either direction.
type TextMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ErrorMessage reports a protocol error to the client.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
