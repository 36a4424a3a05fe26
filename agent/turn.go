package agent

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/tripflow/message"
)

// DisplayMessage is one entry of the user-facing transcript. Tool traffic
// and empty assistant shells never appear here.
type DisplayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnResult is what one call to RunTurn hands back to the caller.
type TurnResult struct {
	ThreadID string `json:"thread_id"`

	// DisplayReply is the text to show the user for this turn. On a
	// failed turn it is a synthetic "System error" line that was never
	// appended to the thread.
	DisplayReply string `json:"display_reply"`

	// DisplayHistory is the full visible transcript of the thread,
	// including this turn.
	DisplayHistory []DisplayMessage `json:"display_history"`

	// StructuredResult holds machine-readable results extracted from this
	// turn's tool output, or nil when the turn produced none.
	StructuredResult map[string]any `json:"structured_result,omitempty"`

	// ResultParams are the arguments of the tool call that produced
	// StructuredResult, flattened for the caller.
	ResultParams map[string]any `json:"result_params,omitempty"`

	// NewMessages are the messages this turn appended to the thread, in
	// order.
	NewMessages []*message.Message `json:"new_messages,omitempty"`

	// Failed reports whether the turn ended with a synthetic error reply
	// instead of a model answer.
	Failed bool `json:"failed,omitempty"`
}

// buildResult assembles the TurnResult for a completed turn. before is the
// thread length at turn start; everything past it was appended by this turn
// and is what the extractor sees.
func (a *Agent) buildResult(ctx context.Context, threadID string, before int, reply string) (*TurnResult, error) {
	history, err := a.store.Messages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	result := &TurnResult{
		ThreadID:       threadID,
		DisplayReply:   reply,
		DisplayHistory: displayHistory(history),
	}

	if before <= len(history) {
		result.NewMessages = history[before:]
	}

	if a.extractor != nil && len(result.NewMessages) > 0 {
		structured, params := a.extractor.Extract(result.NewMessages)
		result.StructuredResult = structured
		result.ResultParams = params

		if notice := a.extractor.Notice(structured); notice != "" {
			if result.DisplayReply != "" {
				result.DisplayReply += "\n\n"
			}
			result.DisplayReply += notice
		}
	}

	return result, nil
}

// failedResult assembles the TurnResult for a turn that died mid-loop. The
// synthetic reply is shown but never stored, so the persisted history holds
// only complete reasoning/tool cycles.
func (a *Agent) failedResult(ctx context.Context, threadID string, before int, cause error) (*TurnResult, error) {
	history, err := a.store.Messages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	result := &TurnResult{
		ThreadID:       threadID,
		DisplayReply:   fmt.Sprintf("System error: %v", cause),
		DisplayHistory: displayHistory(history),
		Failed:         true,
	}
	if before <= len(history) {
		result.NewMessages = history[before:]
	}
	return result, nil
}

// displayHistory filters a thread down to what a user should see: user
// messages and assistant messages with visible text.
func displayHistory(history []*message.Message) []DisplayMessage {
	display := make([]DisplayMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case message.RoleUser:
			display = append(display, DisplayMessage{Role: "user", Content: msg.Content})
		case message.RoleAssistant:
			if msg.Content != "" {
				display = append(display, DisplayMessage{Role: "assistant", Content: msg.Content})
			}
		}
	}
	return display
}
