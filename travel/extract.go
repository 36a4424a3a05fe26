package travel

import (
	"encoding/json"

	"github.com/sweetpotato0/tripflow/message"
)

// PanelNotice is appended to the visible reply when a turn produced
// available flights.
const PanelNotice = "I've loaded the available flights in the panel to the right. Please select one to view details and booking options."

// FlightExtractor recovers the newest flight search result from the
// messages one turn appended, together with the exact arguments that
// produced it. It never looks past the turn slice, so results from earlier
// turns cannot resurface.
type FlightExtractor struct {
	// ToolName defaults to SearchFlightsToolName.
	ToolName string
}

// NewFlightExtractor creates an extractor for the flight search tool
func NewFlightExtractor() *FlightExtractor {
	return &FlightExtractor{ToolName: SearchFlightsToolName}
}

// Extract scans the turn slice in reverse for the most recent flight search
// result. Unparseable content yields {"error": "parse_failure"} with nil
// params; params come from the tool call whose id and name match the
// result, never from "the most recent call of that name".
func (e *FlightExtractor) Extract(newMessages []*message.Message) (map[string]any, map[string]any) {
	toolName := e.ToolName
	if toolName == "" {
		toolName = SearchFlightsToolName
	}

	for i := len(newMessages) - 1; i >= 0; i-- {
		msg := newMessages[i]
		if msg.Role != message.RoleTool || msg.ToolName != toolName {
			continue
		}

		var structured map[string]any
		if err := json.Unmarshal([]byte(msg.Content), &structured); err != nil {
			return map[string]any{"error": "parse_failure"}, nil
		}

		return structured, findCallArgs(newMessages, msg.ToolCallID, toolName)
	}

	// No search this turn: an empty object, distinguishable from a search
	// that produced no flights.
	return map[string]any{}, nil
}

// Notice returns the panel affordance line when the result holds flights.
func (e *FlightExtractor) Notice(structured map[string]any) string {
	if HasFlights(structured) {
		return PanelNotice
	}
	return ""
}

// HasFlights reports whether a structured result contains a non-empty
// flights list.
func HasFlights(structured map[string]any) bool {
	flights, ok := structured["flights"].([]any)
	return ok && len(flights) > 0
}

// findCallArgs walks the slice in reverse for the assistant message owning
// the tool call with the given id and name.
func findCallArgs(msgs []*message.Message, callID, toolName string) map[string]any {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != message.RoleAssistant {
			continue
		}
		for _, call := range msgs[i].ToolCalls {
			if call.ID == callID && call.Name == toolName {
				return call.Args
			}
		}
	}
	return nil
}
