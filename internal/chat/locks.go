package chat

import (
	"sync"

	"github.com/google/uuid"
)

// convLocks serializes turns within a conversation while leaving
// different conversations fully parallel. Entries are reference-counted
// and removed when the last holder releases, so the map does not grow
// with the number of conversations ever seen.
type convLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[uuid.UUID]*convLock)}
}

// acquire blocks until the conversation lock is held and returns the
// release function.
func (c *convLocks) acquire(id uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &convLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
