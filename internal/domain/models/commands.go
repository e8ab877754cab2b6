package models

import "strings"

// CommandType enumerates the replies a coordinator can send to the alert number.
type CommandType string

const (
	CommandDone    CommandType = "done"
	CommandStatus  CommandType = "status"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed coordinator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. Bengali keywords are
// accepted alongside the English ones.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	switch strings.ToLower(strings.TrimPrefix(tokens[0], "/")) {
	case "done", "fulfilled", "সম্পন্ন":
		cmd.Type = CommandDone
	case "status", "stats", "অবস্থা":
		cmd.Type = CommandStatus
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
