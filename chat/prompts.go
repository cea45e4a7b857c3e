package chat

import "strings"

const (
	reminderPrefix = "Reminder: Never show code. Use MCP tools only.\n\nUser request: "
	summaryPrefix  = "Summarize in one line, clearly and concisely: "
)

// exitCommands end the session, compared case-insensitively.
var exitCommands = map[string]bool{
	"exit": true,
	"quit": true,
}

// ReinforcedPrompt prefixes the user's request with the tools-only reminder.
func ReinforcedPrompt(input string) string {
	return reminderPrefix + input
}

// SummaryPrompt asks for a one-line summary of a tool result.
func SummaryPrompt(result string) string {
	return summaryPrefix + result
}

// IsExitCommand reports whether line asks to end the session.
func IsExitCommand(line string) bool {
	return exitCommands[strings.ToLower(strings.TrimSpace(line))]
}
