// Package journal keeps an SQLite audit trail of processed message lines.
// It is write-mostly: nothing in the journal is ever used to restore a
// machine.
package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is not in the journal.
var ErrSessionNotFound = errors.New("journal: session not found")

// SessionInfo summarizes one recorded run.
type SessionInfo struct {
	ID          uuid.UUID
	StartedAt   time.Time
	MachinePath string
	Fingerprint string
	Entries     int
}
