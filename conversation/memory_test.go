package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sweetpotato0/tripflow/message"
)

func TestMemoryStoreEmptyThread(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	msgs, err := store.Messages(ctx, "unseen")
	if err != nil {
		t.Fatalf("Messages on unseen thread: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected empty history for unseen thread, got %d messages", len(msgs))
	}

	n, err := store.Len(ctx, "unseen")
	if err != nil || n != 0 {
		t.Errorf("Expected zero length for unseen thread, got %d (%v)", n, err)
	}
}

func TestMemoryStoreAppendOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := []*message.Message{
		message.NewMessage(message.RoleUser, "first"),
		message.NewMessage(message.RoleAssistant, "second"),
		message.NewMessage(message.RoleTool, "third"),
	}
	if err := store.Append(ctx, "t1", batch...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := store.Messages(ctx, "t1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Errorf("Message %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}
}

// Histories only ever grow: the state at any time must be a strict prefix of
// every later state.
func TestMemoryStoreAppendOnlyPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var snapshots [][]string
	for i := 0; i < 5; i++ {
		store.Append(ctx, "t1", message.NewMessage(message.RoleUser, fmt.Sprintf("msg-%d", i)))
		msgs, err := store.Messages(ctx, "t1")
		if err != nil {
			t.Fatalf("Messages: %v", err)
		}
		ids := make([]string, len(msgs))
		for j, m := range msgs {
			ids[j] = m.ID
		}
		snapshots = append(snapshots, ids)
	}

	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		if len(prev) >= len(cur) {
			t.Fatalf("Snapshot %d did not grow", i)
		}
		for j := range prev {
			if prev[j] != cur[j] {
				t.Errorf("Snapshot %d is not a prefix of snapshot %d at index %d", i-1, i, j)
			}
		}
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, "t1", message.NewMessage(message.RoleUser, "original"))

	msgs, _ := store.Messages(ctx, "t1")
	msgs[0].Content = "mutated"

	again, _ := store.Messages(ctx, "t1")
	if again[0].Content != "original" {
		t.Error("Store handed out a shared reference to its history")
	}
}

func TestMemoryStoreConcurrentThreads(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			threadID := fmt.Sprintf("thread-%d", id)
			for j := 0; j < 20; j++ {
				store.Append(ctx, threadID, message.NewMessage(message.RoleUser, fmt.Sprintf("%d", j)))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		n, err := store.Len(ctx, fmt.Sprintf("thread-%d", i))
		if err != nil {
			t.Fatalf("Len: %v", err)
		}
		if n != 20 {
			t.Errorf("thread-%d: expected 20 messages, got %d", i, n)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("sqlite"); err == nil {
		t.Error("Expected error for unknown backend")
	}

	store, err := Open("")
	if err != nil {
		t.Fatalf("Open default backend: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Expected in-memory store by default, got %T", store)
	}
}

func TestNewThreadID(t *testing.T) {
	a, b := NewThreadID(), NewThreadID()
	if a == "" || a == b {
		t.Errorf("Thread ids must be non-empty and unique, got %q and %q", a, b)
	}
}
