// Package logger provides turn logging middleware.
package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/tripflow/middleware"
	"github.com/sweetpotato0/tripflow/pkg/logging"
)

// TurnLogger logs the start and outcome of every turn with its duration.
type TurnLogger struct {
	logger *slog.Logger
}

// NewTurnLogger creates a turn logging middleware
func NewTurnLogger(logger *slog.Logger) *TurnLogger {
	if logger == nil {
		logger = logging.WithComponent("turn")
	}
	return &TurnLogger{logger: logger}
}

// Name returns the middleware name
func (m *TurnLogger) Name() string {
	return "TurnLogger"
}

// Execute logs the turn around the downstream handler
func (m *TurnLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.Info("turn started",
		"thread_id", ctx.ThreadID,
		"input_chars", len(ctx.Input))

	start := time.Now()
	err := next(ctx)
	elapsed := time.Since(start)

	if err != nil {
		m.logger.Error("turn failed",
			"thread_id", ctx.ThreadID,
			"duration", elapsed,
			"error", err)
		return err
	}

	reply := ""
	if ctx.Response != nil {
		reply = ctx.Response.Content
	}
	m.logger.Info("turn completed",
		"thread_id", ctx.ThreadID,
		"duration", elapsed,
		"reply_chars", len(reply))
	return nil
}
