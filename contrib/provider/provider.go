// Package provider defines the contract model backends implement.
package provider

import (
	"context"

	"github.com/sweetpotato0/tripflow/message"
)

// Provider is the reasoning backend: given the full prompt and the
// advertised tool schemas it returns one assistant message, either a final
// answer or a batch of tool calls.
type Provider interface {
	Generate(ctx context.Context, messages []*message.Message, tools []map[string]any) (*message.Message, error)
}
