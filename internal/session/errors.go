package session

import (
	"errors"
	"fmt"
)

var (
	// ErrQuit is returned when :quit is dispatched. It ends the session;
	// the host decides what terminating means (exit the process, close a
	// connection, ...). Commands after :quit in the same input never run.
	ErrQuit = errors.New("session terminated by :quit")

	// ErrNoLastError is returned by :explain-last-error when no
	// compilation failure has been recorded.
	ErrNoLastError = errors.New("no last error to explain")

	// ErrNoExplanation is returned by :explain-last-error when a recorded
	// diagnostic carries no explanation.
	ErrNoExplanation = errors.New("sorry, last error has no explanation")
)

// UnknownCommandError reports a meta-command name outside the command table.
type UnknownCommandError struct {
	Name       string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unrecognised command %s (did you mean %s?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unrecognised command %s", e.Name)
}

// EncodedDiagnosticsError carries the machine-readable form of the last
// compilation failure, one JSON document per line. :last-error-encoded
// always returns it.
type EncodedDiagnosticsError struct {
	JSON string
}

func (e *EncodedDiagnosticsError) Error() string {
	return e.JSON
}
