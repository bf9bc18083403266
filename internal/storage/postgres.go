package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"arborsched/internal/schedule"
	logx "arborsched/pkg/logx"

	_ "github.com/lib/pq"
)

//go:embed postgres_migrations.sql
var pgMigrationsFS embed.FS

type postgresStore struct {
	db  *sql.DB
	log logx.Logger
}

func openPostgres(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	st := &postgresStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *postgresStore) migrate(ctx context.Context) error {
	b, err := pgMigrationsFS.ReadFile("postgres_migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *postgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *postgresStore) scanRow(row rowScanner) (schedule.Event, error) {
	var (
		ev                              schedule.Event
		description, clientID, client   sql.NullString
		color, parentID                 sql.NullString
		assigned, equip, recur, changes []byte
	)
	err := row.Scan(
		&ev.ID, &ev.Title, &description, &ev.Type, &clientID, &client,
		&ev.Start, &ev.End, &ev.AllDay, &ev.Status, &ev.Priority, &color,
		&assigned, &equip, &recur, &parentID, &changes,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return schedule.Event{}, err
	}
	ev.Description = description.String
	ev.ClientID = clientID.String
	ev.ClientName = client.String
	ev.Color = color.String
	ev.ParentEventID = parentID.String

	if len(assigned) > 0 {
		if err := json.Unmarshal(assigned, &ev.AssignedTo); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad assigned_to: %w", ev.ID, err)
		}
	}
	if len(equip) > 0 {
		if err := json.Unmarshal(equip, &ev.Equipment); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad equipment: %w", ev.ID, err)
		}
	}
	if len(recur) > 0 {
		var r schedule.Recurrence
		if err := json.Unmarshal(recur, &r); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad recurrence: %w", ev.ID, err)
		}
		ev.Recurrence = &r
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &ev.Changes); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad changes: %w", ev.ID, err)
		}
	}
	return ev, nil
}

func (s *postgresStore) FindActiveEventsForResources(ctx context.Context, scope schedule.ResourceSet) ([]schedule.Event, error) {
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
		ev, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		if ev.ReferencesAny(scope) {
			out = append(out, ev)
		}
	}
	return out, rows.Err()
}

func (s *postgresStore) GetEvent(ctx context.Context, id string) (schedule.Event, error) {
	if s == nil || s.db == nil {
		return schedule.Event{}, ErrDisabled
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Event{}, ErrNotFound
	}
	return ev, err
}

func (s *postgresStore) InsertEvent(ctx context.Context, ev schedule.Event) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	assigned, equip, recur, changes, err := encodeEventFields(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		ev.ID, ev.Title, nullStr(ev.Description), string(ev.Type),
		nullStr(ev.ClientID), nullStr(ev.ClientName),
		ev.Start, ev.End, ev.AllDay,
		string(ev.Status), string(ev.Priority), nullStr(ev.Color),
		assigned, equip, recur, nullStr(ev.ParentEventID), changes,
		ev.CreatedAt, ev.UpdatedAt,
	)
	return err
}

func (s *postgresStore) UpdateEvent(ctx context.Context, ev schedule.Event) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	assigned, equip, recur, changes, err := encodeEventFields(ev)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET
		   title=$1, description=$2, type=$3, client_id=$4, client_name=$5,
		   start_at=$6, end_at=$7, all_day=$8, status=$9, priority=$10, color=$11,
		   assigned_to=$12, equipment=$13, recurrence=$14, parent_event_id=$15, changes=$16,
		   updated_at=$17
		 WHERE id=$18`,
		ev.Title, nullStr(ev.Description), string(ev.Type),
		nullStr(ev.ClientID), nullStr(ev.ClientName),
		ev.Start, ev.End, ev.AllDay,
		string(ev.Status), string(ev.Priority), nullStr(ev.Color),
		assigned, equip, recur, nullStr(ev.ParentEventID), changes,
		ev.UpdatedAt,
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

func (s *postgresStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(at, actor, event_id, action, field, old_value, new_value, meta)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.At, nullStr(e.Actor), nullStr(e.EventID),
		e.Action, nullStr(e.Field), nullStr(e.Old), nullStr(e.New), nullStr(e.MetaJSON),
	)
	return err
}

func (s *postgresStore) PruneAudit(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit WHERE at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
