package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"arborsched/internal/schedule"
)

// Events are stored as one row each; list-shaped fields (assignees,
// equipment, change trail) and the recurrence definition are JSON columns.
// Resource scoping therefore happens in Go after the status filter; the SQL
// side only narrows to active rows.

func jsonText(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func encodeEventFields(ev schedule.Event) (assigned, equipment, recurrence, changes any, err error) {
	if assigned, err = jsonText(ev.AssignedTo, len(ev.AssignedTo) == 0); err != nil {
		return
	}
	if equipment, err = jsonText(ev.Equipment, len(ev.Equipment) == 0); err != nil {
		return
	}
	if recurrence, err = jsonText(ev.Recurrence, ev.Recurrence == nil); err != nil {
		return
	}
	changes, err = jsonText(ev.Changes, len(ev.Changes) == 0)
	return
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (schedule.Event, error) {
	var (
		ev                               schedule.Event
		description, clientID, client    sql.NullString
		startAt, endAt                   string
		allDay                           bool
		color, parentID                  sql.NullString
		assigned, equip, recur, changes  sql.NullString
		createdAt, updatedAt             string
	)
	err := row.Scan(
		&ev.ID, &ev.Title, &description, &ev.Type, &clientID, &client,
		&startAt, &endAt, &allDay, &ev.Status, &ev.Priority, &color,
		&assigned, &equip, &recur, &parentID, &changes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return schedule.Event{}, err
	}

	ev.Description = description.String
	ev.ClientID = clientID.String
	ev.ClientName = client.String
	ev.AllDay = allDay
	ev.Color = color.String
	ev.ParentEventID = parentID.String

	if ev.Start, err = parseTime(startAt); err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: bad start_at: %w", ev.ID, err)
	}
	if ev.End, err = parseTime(endAt); err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: bad end_at: %w", ev.ID, err)
	}
	if ev.CreatedAt, err = parseTime(createdAt); err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: bad created_at: %w", ev.ID, err)
	}
	if ev.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: bad updated_at: %w", ev.ID, err)
	}

	if assigned.Valid && assigned.String != "" {
		if err := json.Unmarshal([]byte(assigned.String), &ev.AssignedTo); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad assigned_to: %w", ev.ID, err)
		}
	}
	if equip.Valid && equip.String != "" {
		if err := json.Unmarshal([]byte(equip.String), &ev.Equipment); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad equipment: %w", ev.ID, err)
		}
	}
	if recur.Valid && recur.String != "" {
		var r schedule.Recurrence
		if err := json.Unmarshal([]byte(recur.String), &r); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad recurrence: %w", ev.ID, err)
		}
		ev.Recurrence = &r
	}
	if changes.Valid && changes.String != "" {
		if err := json.Unmarshal([]byte(changes.String), &ev.Changes); err != nil {
			return schedule.Event{}, fmt.Errorf("event %s: bad changes: %w", ev.ID, err)
		}
	}
	return ev, nil
}

const eventColumns = `id, title, description, type, client_id, client_name,
start_at, end_at, all_day, status, priority, color,
assigned_to, equipment, recurrence, parent_event_id, changes,
created_at, updated_at`

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
