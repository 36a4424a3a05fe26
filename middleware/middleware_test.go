package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/tripflow/message"
)

type recordingMiddleware struct {
	name  string
	calls *[]string
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) Execute(ctx *Context, next Handler) error {
	*m.calls = append(*m.calls, m.name+":before")
	err := next(ctx)
	*m.calls = append(*m.calls, m.name+":after")
	return err
}

func TestChainOrder(t *testing.T) {
	var calls []string
	chain := NewChain(
		&recordingMiddleware{name: "outer", calls: &calls},
		&recordingMiddleware{name: "inner", calls: &calls},
	)

	ctx := NewContext(context.Background())
	err := chain.Execute(ctx, func(ctx *Context) error {
		calls = append(calls, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d calls, got %d: %v", len(want), len(calls), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

type failingMiddleware struct{}

func (m *failingMiddleware) Name() string { return "Failing" }

func (m *failingMiddleware) Execute(ctx *Context, next Handler) error {
	return errors.New("blocked")
}

func TestChainStopsOnError(t *testing.T) {
	handlerRan := false
	chain := NewChain(&failingMiddleware{})

	err := chain.Execute(NewContext(context.Background()), func(ctx *Context) error {
		handlerRan = true
		return nil
	})
	if err == nil {
		t.Fatal("Expected error from failing middleware")
	}
	if handlerRan {
		t.Error("Handler should not run when a middleware fails")
	}
}

func TestEmptyChainCallsHandler(t *testing.T) {
	chain := NewChain()
	ctx := NewContext(context.Background())
	ctx.ThreadID = "t1"
	ctx.Input = "hello"

	ran := false
	err := chain.Execute(ctx, func(ctx *Context) error {
		ran = true
		ctx.Response = message.NewMessage(message.RoleAssistant, "hi")
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("Expected handler to run, ran=%v err=%v", ran, err)
	}
	if ctx.Response == nil || ctx.Response.Content != "hi" {
		t.Error("Response was not carried through the context")
	}
}

func TestContextCarriesValues(t *testing.T) {
	base := context.WithValue(context.Background(), struct{}{}, "v")
	ctx := NewContext(base)
	if ctx.Context() != base {
		t.Error("Context() should return the wrapped context")
	}
	if ctx.Metadata == nil {
		t.Error("Metadata map should be initialized")
	}
}
