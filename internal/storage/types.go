package storage

import (
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	// ErrNotFound reports a missing event or resource reference. The booking
	// core passes it through unchanged.
	ErrNotFound = errors.New("not found")
)

// Config configures storage.
//
// Driver values:
//   - "memory" (or empty): in-process map, lost on restart
//   - "sqlite": SQLite database file
//   - "postgres": PostgreSQL via DSN
type Config struct {
	Driver      string
	Path        string        // sqlite only
	DSN         string        // postgres only
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records one booking operation.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At       time.Time
	Actor    string
	EventID  string
	Action   string // "create", "assign_equipment", "assign_person", "reschedule", "transition"
	Field    string
	Old      string
	New      string
	MetaJSON string
}
