// Package history records REPL submissions so they can be recalled across
// sessions.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Outcome of an evaluated submission.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry is one submitted input.
type Entry struct {
	ID        string
	SessionID string
	Input     string
	Outcome   string
	CreatedAt time.Time
}

// NewEntry returns an Entry stamped with a fresh ID and the current time.
func NewEntry(sessionID, input, outcome string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Input:     input,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists entries.
type Store interface {
	// Append records e.
	Append(e Entry) error

	// Recent returns up to limit entries, oldest first. limit <= 0 means
	// all of them.
	Recent(limit int) ([]Entry, error)

	Close() error
}
