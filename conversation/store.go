// Package conversation holds per-thread message histories.
//
// A thread is one logical multi-turn exchange identified by an opaque id.
// Histories are append-only logs: messages are never edited or removed, and
// insertion order is the only order. The orchestration loop serializes turns
// per thread, so stores only need to keep appends for different threads from
// interfering with each other.
package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sweetpotato0/tripflow/message"
)

// Store is the interface for thread history backends.
type Store interface {
	// Messages returns the full history for a thread in append order.
	// Unseen thread ids yield an empty history, not an error.
	Messages(ctx context.Context, threadID string) ([]*message.Message, error)

	// Append adds messages to the end of a thread's history, preserving
	// the relative order of the batch. Threads are created lazily on
	// first append.
	Append(ctx context.Context, threadID string, msgs ...*message.Message) error

	// Len returns a snapshot of the current history length. The loop
	// diffs before/after values to find the messages added by one turn.
	Len(ctx context.Context, threadID string) (int, error)
}

// NewThreadID mints a fresh opaque thread id. Callers mint a new id to
// start over; there is no reset operation on a store.
func NewThreadID() string {
	return uuid.NewString()
}
