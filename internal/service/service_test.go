package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xiaot623/gogo/alertlink/internal/config"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/store"
	"github.com/xiaot623/gogo/alertlink/tests/helpers"
)

type stubGenerator struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (g *stubGenerator) Generate(ctx context.Context, profile domain.Profile, conditions domain.Conditions) (string, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

type sentMessage struct {
	addr domain.Address
	text string
}

type recordingSender struct {
	mu    sync.Mutex
	err   error
	block bool
	sent  []sentMessage
}

func (s *recordingSender) Send(ctx context.Context, addr domain.Address, text string) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{addr: addr, text: text})
	return nil
}

func (s *recordingSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

// countingStore counts reads and can inject failures.
type countingStore struct {
	store.Store
	reads      atomic.Int32
	getErr     error
	putErr     error
	addressErr error
}

func (s *countingStore) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	s.reads.Add(1)
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.GetAccount(ctx, identity)
}

func (s *countingStore) GetAddress(ctx context.Context, identity string) (*domain.RegistryEntry, error) {
	s.reads.Add(1)
	if s.addressErr != nil {
		return nil, s.addressErr
	}
	return s.Store.GetAddress(ctx, identity)
}

func (s *countingStore) PutAddress(ctx context.Context, identity string, addr domain.Address, at time.Time) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.PutAddress(ctx, identity, addr, at)
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{TimeoutMS: 200},
		Dispatch: config.DispatchConfig{SendTimeoutMS: 200},
	}
}

type fixture struct {
	svc       *Service
	store     *countingStore
	generator *stubGenerator
	sender    *recordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := &countingStore{Store: helpers.NewTestSQLiteStore(t)}
	gen := &stubGenerator{text: "Stay indoors."}
	sender := &recordingSender{}
	return &fixture{
		svc:       New(st, gen, sender, testConfig()),
		store:     st,
		generator: gen,
		sender:    sender,
	}
}

var errBoom = errors.New("boom")
