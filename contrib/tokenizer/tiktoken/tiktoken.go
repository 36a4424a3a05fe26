// Package tiktoken provides prompt-size accounting for model calls.
package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/sweetpotato0/tripflow/message"
)

// Tokenizer counts tokens with a tiktoken encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a tokenizer for the given model or encoding name.
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// fall back to a raw encoding name like cl100k_base
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Encode returns the token ids for a text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// CountTokens returns the number of tokens in a text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// CountMessages estimates the prompt size of a message list. Tool call
// names count too since they ride along in the request.
func (t *Tokenizer) CountMessages(msgs []*message.Message) int {
	total := 0
	for _, msg := range msgs {
		total += t.CountTokens(msg.Content)
		for _, call := range msg.ToolCalls {
			total += t.CountTokens(call.Name)
		}
	}
	return total
}
