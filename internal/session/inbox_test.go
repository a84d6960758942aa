package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboxPreservesOrderPerKey(t *testing.T) {
	inbox := NewInbox()

	var mu sync.Mutex
	got := map[string][]int{}
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("chat-%d", i%4)
		n := i
		inbox.Submit(key, func() {
			mu.Lock()
			got[key] = append(got[key], n)
			mu.Unlock()
		})
	}
	inbox.Wait()

	assert.Len(t, got, 4)
	for key, seq := range got {
		assert.Len(t, seq, 50, key)
		for i := 1; i < len(seq); i++ {
			assert.Less(t, seq[i-1], seq[i], key)
		}
	}
}

func TestInboxSurvivesPanics(t *testing.T) {
	inbox := NewInbox()
	ran := false
	inbox.Submit("k", func() { panic("boom") })
	inbox.Submit("k", func() { ran = true })
	inbox.Wait()

	assert.True(t, ran)
}
