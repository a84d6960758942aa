package session

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Inbox runs tasks one at a time per key, in submission order, while tasks
// for different keys run concurrently.
type Inbox struct {
	mu     sync.Mutex
	queues map[string][]func() // present while a worker runs for the key
	wg     sync.WaitGroup
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{queues: make(map[string][]func())}
}

// Submit queues task behind earlier tasks for key.
func (b *Inbox) Submit(key string, task func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, running := b.queues[key]
	b.queues[key] = append(q, task)
	if !running {
		b.wg.Add(1)
		go b.drain(key)
	}
}

// Wait blocks until every submitted task has run.
func (b *Inbox) Wait() {
	b.wg.Wait()
}

func (b *Inbox) drain(key string) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		q := b.queues[key]
		if len(q) == 0 {
			delete(b.queues, key)
			b.mu.Unlock()
			return
		}
		task := q[0]
		q[0] = nil
		b.queues[key] = q[1:]
		b.mu.Unlock()

		run(key, task)
	}
}

func run(key string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("key", key).Interface("panic", r).Msg("inbox task panicked")
		}
	}()
	task()
}
