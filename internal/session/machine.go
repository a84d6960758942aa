package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
)

// Authenticator checks credentials and records channel addresses.
type Authenticator interface {
	ValidateCredentials(ctx context.Context, identity, secret string) (*domain.Account, error)
	PersistChannelAddress(ctx context.Context, identity string, addr domain.Address) error
}

// Machine holds one State per conversation. A conversation is identified by
// the channel address its messages arrive from. Messages of one conversation
// are handled one at a time; different conversations run in parallel.
type Machine struct {
	auth Authenticator

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state State
	refs  int // guarded by Machine.mu
}

// NewMachine creates a machine with every conversation idle.
func NewMachine(auth Authenticator) *Machine {
	return &Machine{
		auth:    auth,
		entries: make(map[string]*entry),
	}
}

// Handle applies one inbound message and returns the reply to send back.
// An empty reply means the message is ignored.
func (m *Machine) Handle(ctx context.Context, addr domain.Address, text string) string {
	key := addr.String()
	e := m.acquire(key)
	defer m.release(key, e)

	e.mu.Lock()
	defer e.mu.Unlock()

	from := e.state
	next, reply := m.step(ctx, addr, from, text)
	e.state = next

	if from.Phase() != next.Phase() {
		log.Debug().Str("conversation", key).Str("from", string(from.Phase())).
			Str("to", string(next.Phase())).Msg("session transition")
	}
	return reply
}

// State returns the current state of a conversation.
func (m *Machine) State(addr domain.Address) State {
	key := addr.String()
	e := m.acquire(key)
	defer m.release(key, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Active returns how many conversations are mid-login or being handled.
func (m *Machine) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Machine) acquire(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{state: Idle{}}
		m.entries[key] = e
	}
	e.refs++
	return e
}

// release drops idle entries nobody else is waiting on.
func (m *Machine) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 && e.state.Phase() == PhaseIdle {
		delete(m.entries, key)
	}
}

func (m *Machine) step(ctx context.Context, addr domain.Address, state State, text string) (State, string) {
	switch Classify(text) {
	case IntentStart:
		return AwaitingIdentity{}, msgWelcome
	case IntentHelp:
		return state, msgHelp
	}

	switch s := state.(type) {
	case AwaitingIdentity:
		return AwaitingSecret{PendingIdentity: strings.TrimSpace(text)}, msgAskSecret

	case AwaitingSecret:
		return Idle{}, m.login(ctx, addr, s.PendingIdentity, strings.TrimSpace(text))

	default:
		if cmd, ok := Suggest(text); ok {
			return Idle{}, msgSuggest(commandWord(text), cmd)
		}
		return Idle{}, ""
	}
}

func (m *Machine) login(ctx context.Context, addr domain.Address, identity, secret string) string {
	logger := log.With().Str("conversation", addr.String()).Logger()

	account, err := m.auth.ValidateCredentials(ctx, identity, secret)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			logger.Info().Msg("login rejected")
		} else {
			logger.Error().Err(err).Msg("credential check failed")
		}
		return msgFailure
	}

	if err := m.auth.PersistChannelAddress(ctx, account.Identity, addr); err != nil {
		logger.Error().Err(err).Str("identity", account.Identity).Msg("failed to link channel address")
		return msgLinkError
	}

	logger.Info().Str("identity", account.Identity).Msg("login succeeded")
	return msgSuccess(account.Name())
}
