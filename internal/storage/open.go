package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"arborsched/internal/schedule"
	logx "arborsched/pkg/logx"
)

// Store is the event repository consumed by the booking service.
//
// FindActiveEventsForResources returns every event in an active status
// (scheduled/confirmed/in_progress) that books at least one resource in the
// scope. The conflict core does the interval work; the store only narrows
// the candidate set.
type Store interface {
	FindActiveEventsForResources(ctx context.Context, scope schedule.ResourceSet) ([]schedule.Event, error)
	GetEvent(ctx context.Context, id string) (schedule.Event, error)
	InsertEvent(ctx context.Context, ev schedule.Event) error
	UpdateEvent(ctx context.Context, ev schedule.Event) error

	AppendAudit(ctx context.Context, e AuditEntry) error
	PruneAudit(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}

// Open initializes the configured store. An empty driver defaults to the
// in-memory store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "postgres", "postgresql":
		return openPostgres(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
