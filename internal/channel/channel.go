// Package channel delivers text to conversational channel addresses.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// ErrUnknownChannel is returned for addresses on a channel with no transport.
var ErrUnknownChannel = errors.New("unknown channel")

// Sender delivers one text message to an address. Implementations must
// honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, addr domain.Address, text string) error
}

// Conversations handles inbound conversational messages and returns the
// reply, or "" when there is nothing to say.
type Conversations interface {
	Handle(ctx context.Context, addr domain.Address, text string) string
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, addr domain.Address, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, addr domain.Address, text string) error {
	return f(ctx, addr, text)
}

// Router sends through the transport registered for the address's channel.
type Router struct {
	mu      sync.RWMutex
	senders map[domain.Channel]Sender
}

// Ensure Router implements Sender.
var _ Sender = (*Router)(nil)

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{senders: make(map[domain.Channel]Sender)}
}

// Register installs the transport for ch, replacing any previous one.
func (r *Router) Register(ch domain.Channel, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[ch] = s
}

// Channels returns the registered channel names.
func (r *Router) Channels() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	return out
}

// Send routes text to the transport for addr.Channel.
func (r *Router) Send(ctx context.Context, addr domain.Address, text string) error {
	r.mu.RLock()
	s, ok := r.senders[addr.Channel]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, addr.Channel)
	}
	return s.Send(ctx, addr, text)
}
