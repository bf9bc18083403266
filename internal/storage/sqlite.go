package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"arborsched/internal/schedule"
	logx "arborsched/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) FindActiveEventsForResources(ctx context.Context, scope schedule.ResourceSet) ([]schedule.Event, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE status IN ('scheduled','confirmed','in_progress')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		// Resource scoping is done here; the JSON columns are opaque to SQL.
		if ev.ReferencesAny(scope) {
			out = append(out, ev)
		}
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetEvent(ctx context.Context, id string) (schedule.Event, error) {
	if s == nil || s.db == nil {
		return schedule.Event{}, ErrDisabled
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Event{}, ErrNotFound
	}
	return ev, err
}

func (s *sqliteStore) InsertEvent(ctx context.Context, ev schedule.Event) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	assigned, equip, recur, changes, err := encodeEventFields(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.Title, nullStr(ev.Description), string(ev.Type),
		nullStr(ev.ClientID), nullStr(ev.ClientName),
		formatTime(ev.Start), formatTime(ev.End), ev.AllDay,
		string(ev.Status), string(ev.Priority), nullStr(ev.Color),
		assigned, equip, recur, nullStr(ev.ParentEventID), changes,
		formatTime(ev.CreatedAt), formatTime(ev.UpdatedAt),
	)
	return err
}

func (s *sqliteStore) UpdateEvent(ctx context.Context, ev schedule.Event) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	assigned, equip, recur, changes, err := encodeEventFields(ev)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET
		   title=?, description=?, type=?, client_id=?, client_name=?,
		   start_at=?, end_at=?, all_day=?, status=?, priority=?, color=?,
		   assigned_to=?, equipment=?, recurrence=?, parent_event_id=?, changes=?,
		   updated_at=?
		 WHERE id=?`,
		ev.Title, nullStr(ev.Description), string(ev.Type),
		nullStr(ev.ClientID), nullStr(ev.ClientName),
		formatTime(ev.Start), formatTime(ev.End), ev.AllDay,
		string(ev.Status), string(ev.Priority), nullStr(ev.Color),
		assigned, equip, recur, nullStr(ev.ParentEventID), changes,
		formatTime(ev.UpdatedAt),
		ev.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(at, actor, event_id, action, field, old_value, new_value, meta)
		 VALUES(?,?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), nullStr(e.Actor), nullStr(e.EventID),
		e.Action, nullStr(e.Field), nullStr(e.Old), nullStr(e.New), nullStr(e.MetaJSON),
	)
	return err
}

func (s *sqliteStore) PruneAudit(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit WHERE at < ?`, olderThan.Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
