package command

import "fmt"

// CommandError carries a message meant for the user verbatim. Handlers
// return one for expected failures ("No such streamer") so the dispatch
// boundary relays it instead of logging and apologizing.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// Errorf builds a CommandError the way fmt.Errorf builds an error.
func Errorf(format string, a ...any) error {
	return &CommandError{Message: fmt.Sprintf(format, a...)}
}

// SyntaxError reports misuse of a command. Its message shows the usage
// string the handler was registered with.
type SyntaxError struct {
	Syntax string
}

func (e *SyntaxError) Error() string { return "Syntax: `" + e.Syntax + "`" }
