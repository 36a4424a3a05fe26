package travel

import (
	"fmt"
	"time"
)

// SystemPrompt returns the agency worker prompt carrying the current year,
// so the model resolves relative dates like "next March" correctly.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are a smart travel agency. Use the tools to look up information.
Only look up information when you are sure you want it.
If you need to look up some information before asking a follow-up question, you are allowed to do that.
Respond with flights from the departure city to the arrival city.
The current year is %d.`, now.Year())
}

// Greeting is the canned first message for an empty conversation.
const Greeting = "Hello! I'm your travel assistant. Tell me where you'd like to fly from, where to, and when, and I'll find flights for you."
