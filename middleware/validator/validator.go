// Package validator provides input validation middleware.
package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/sweetpotato0/tripflow/middleware"
)

// DefaultMaxInputLen bounds the user text accepted for one turn.
const DefaultMaxInputLen = 4000

// InputValidator rejects turns whose user text is malformed before any
// model call is made.
type InputValidator struct {
	maxLen int
}

// NewInputValidator creates an input validation middleware
func NewInputValidator() *InputValidator {
	return &InputValidator{maxLen: DefaultMaxInputLen}
}

// WithMaxLen overrides the maximum accepted input length in runes
func (m *InputValidator) WithMaxLen(n int) *InputValidator {
	m.maxLen = n
	return m
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if !utf8.ValidString(ctx.Input) {
		return fmt.Errorf("%w: input is not valid UTF-8", middleware.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(ctx.Input); n > m.maxLen {
		return fmt.Errorf("%w: input of %d characters exceeds limit %d",
			middleware.ErrInvalidInput, n, m.maxLen)
	}
	return next(ctx)
}
