package storage

import (
	"context"
	"sync"
	"time"

	"arborsched/internal/schedule"
)

// Memory is the in-process store. It is the default driver and doubles as
// the repository fake in tests.
type Memory struct {
	mu     sync.RWMutex
	events map[string]schedule.Event
	audit  []AuditEntry
}

func NewMemory() *Memory {
	return &Memory{events: map[string]schedule.Event{}}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) FindActiveEventsForResources(ctx context.Context, scope schedule.ResourceSet) ([]schedule.Event, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Event
	for _, ev := range m.events {
		if !ev.Active() {
			continue
		}
		if !ev.ReferencesAny(scope) {
			continue
		}
		out = append(out, copyEvent(ev))
	}
	return out, nil
}

func (m *Memory) GetEvent(ctx context.Context, id string) (schedule.Event, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return schedule.Event{}, ErrNotFound
	}
	return copyEvent(ev), nil
}

func (m *Memory) InsertEvent(ctx context.Context, ev schedule.Event) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = copyEvent(ev)
	return nil
}

func (m *Memory) UpdateEvent(ctx context.Context, ev schedule.Event) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.ID]; !ok {
		return ErrNotFound
	}
	m.events[ev.ID] = copyEvent(ev)
	return nil
}

func (m *Memory) AppendAudit(ctx context.Context, e AuditEntry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) PruneAudit(ctx context.Context, olderThan time.Time) (int, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.audit[:0]
	removed := 0
	for _, e := range m.audit {
		if e.At.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.audit = kept
	return removed, nil
}

// AuditLen reports the current audit size. Test helper.
func (m *Memory) AuditLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.audit)
}

// copyEvent deep-copies the slices so callers can't mutate stored state.
func copyEvent(ev schedule.Event) schedule.Event {
	cp := ev
	cp.AssignedTo = append([]schedule.Assignee(nil), ev.AssignedTo...)
	cp.Equipment = append([]schedule.EquipmentUse(nil), ev.Equipment...)
	cp.Changes = append([]schedule.ChangeEntry(nil), ev.Changes...)
	if ev.Recurrence != nil {
		r := *ev.Recurrence
		cp.Recurrence = &r
	}
	return cp
}
