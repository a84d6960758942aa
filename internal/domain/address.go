package domain

import (
	"fmt"
	"strings"
	"time"
)

// Address is an opaque destination on a conversational channel, for example
// a Telegram chat id or a websocket session id.
type Address struct {
	Channel Channel
	ID      string
}

// NewAddress builds an address on the given channel.
func NewAddress(channel Channel, id string) Address {
	return Address{Channel: channel, ID: id}
}

// String renders the address as "<channel>:<id>".
func (a Address) String() string {
	return string(a.Channel) + ":" + a.ID
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Channel == "" && a.ID == ""
}

// ParseAddress parses the "<channel>:<id>" form produced by String.
func ParseAddress(s string) (Address, error) {
	channel, id, ok := strings.Cut(s, ":")
	if !ok || channel == "" || id == "" {
		return Address{}, fmt.Errorf("invalid channel address %q", s)
	}
	return Address{Channel: Channel(channel), ID: id}, nil
}

// RegistryEntry is the last known channel address for an identity.
type RegistryEntry struct {
	Identity  string
	Address   Address
	UpdatedAt time.Time
}
