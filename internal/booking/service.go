package booking

import (
	"context"
	"fmt"
	"time"

	"arborsched/internal/schedule"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

type Service struct {
	repo  storage.Store
	log   logx.Logger
	locks *keyedMutex

	// now is swappable for tests.
	now func() time.Time
}

func New(repo storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		repo:  repo,
		log:   log,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
}

// CreateEvent validates the draft, materializes recurrence occurrences, and
// persists the base event plus every occurrence.
func (s *Service) CreateEvent(ctx context.Context, d schedule.Draft, actor string) (CreateResult, error) {
	now := s.now()

	ev, err := schedule.NewEvent(d, now)
	if err != nil {
		return CreateResult{}, err
	}
	occurrences, err := schedule.Expand(ev, now)
	if err != nil {
		return CreateResult{}, err
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		return CreateResult{}, fmt.Errorf("insert event: %w", err)
	}
	for i := range occurrences {
		if err := s.repo.InsertEvent(ctx, occurrences[i]); err != nil {
			return CreateResult{}, fmt.Errorf("insert occurrence %d: %w", i, err)
		}
	}

	if err := s.repo.AppendAudit(ctx, storage.AuditEntry{
		At: now, Actor: actor, EventID: ev.ID, Action: "create",
		New: string(ev.Type),
	}); err != nil {
		s.log.Warn("audit append failed", logx.String("event_id", ev.ID), logx.Err(err))
	}
	s.log.Info("event created",
		logx.String("event_id", ev.ID),
		logx.String("type", string(ev.Type)),
		logx.Int("occurrences", len(occurrences)),
	)
	return CreateResult{Event: ev, Occurrences: occurrences}, nil
}

// AssignEquipment books a piece of equipment for the event after validating
// it against every other active booking of that equipment.
func (s *Service) AssignEquipment(ctx context.Context, eventID, equipmentID string, quantity int, note, actor string) (schedule.Event, error) {
	if quantity <= 0 {
		quantity = 1
	}
	scope := schedule.EquipmentSet(equipmentID)
	return s.assign(ctx, eventID, "equipment", equipmentID, scope, actor, func(ev *schedule.Event, now time.Time) {
		ev.Equipment = append(ev.Equipment, schedule.EquipmentUse{
			EquipmentID: equipmentID,
			Quantity:    quantity,
			AssignedAt:  now,
			Note:        note,
		})
		ev.AppendChange("equipment", "", equipmentID, actor, now)
	})
}

// AssignPerson books a technician for the event. Identical algorithm to
// AssignEquipment, scoped to the person.
func (s *Service) AssignPerson(ctx context.Context, eventID, personID, role, actor string) (schedule.Event, error) {
	scope := schedule.PeopleSet(personID)
	return s.assign(ctx, eventID, "person", personID, scope, actor, func(ev *schedule.Event, now time.Time) {
		ev.AssignedTo = append(ev.AssignedTo, schedule.Assignee{PersonID: personID, Role: role})
		ev.AppendChange("assigned_to", "", personID, actor, now)
	})
}

func (s *Service) assign(ctx context.Context, eventID, kind, resourceID string, scope schedule.ResourceSet, actor string, apply func(*schedule.Event, time.Time)) (schedule.Event, error) {
	log := s.log.With(
		logx.String("event_id", eventID),
		logx.String(kind, resourceID),
	)
	log.Debug("assignment "+opRequested, logx.String("actor", actor))

	// Check-then-write is one logical unit per resource. The event key keeps
	// concurrent mutations of the same event from losing updates.
	keys := append(scope.Keys(), "event:"+eventID)
	unlock := s.locks.Lock(keys...)
	defer unlock()

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return schedule.Event{}, err
	}
	if ev.Status.Terminal() {
		return schedule.Event{}, ErrEventClosed
	}

	log.Debug("assignment " + opChecking)
	active, err := s.repo.FindActiveEventsForResources(ctx, scope)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("fetch active events: %w", err)
	}
	conflicts := schedule.FindConflicts(ev.Interval(), scope, ev.ID, active)
	if len(conflicts) > 0 {
		cerr := schedule.NewConflictError(kind, resourceID, ev.Interval(), conflicts)
		log.Warn("assignment "+opRejected,
			logx.Int("conflicts", len(conflicts)),
			logx.String("first_conflict", conflicts[0].ID),
		)
		return schedule.Event{}, cerr
	}

	now := s.now()
	apply(&ev, now)
	ev.UpdatedAt = now
	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return schedule.Event{}, fmt.Errorf("persist assignment: %w", err)
	}
	if err := s.repo.AppendAudit(ctx, storage.AuditEntry{
		At: now, Actor: actor, EventID: ev.ID,
		Action: "assign_" + kind, Field: kind, New: resourceID,
	}); err != nil {
		log.Warn("audit append failed", logx.Err(err))
	}
	log.Info("assignment " + opApproved)
	return ev, nil
}

// lockEventScope acquires the event lock plus the lock of every resource the
// event books, and returns the event as read under those locks.
//
// The scope is only known after a read, so the read happens under the lock.
// An assignment landing between the read and the lock can grow the scope;
// acquisition retries with the fresh key set until the held locks cover
// everything the re-read event books.
func (s *Service) lockEventScope(ctx context.Context, eventID string) (schedule.Event, func(), error) {
	keys := []string{"event:" + eventID}
	for {
		unlock := s.locks.Lock(keys...)
		ev, err := s.repo.GetEvent(ctx, eventID)
		if err != nil {
			unlock()
			return schedule.Event{}, nil, err
		}
		want := append(ev.Resources().Keys(), "event:"+eventID)
		if coveredBy(want, keys) {
			return ev, unlock, nil
		}
		unlock()
		keys = want
	}
}

// Reschedule moves an event to a new interval. The event passes through the
// transient rescheduled status while the new interval is re-validated against
// every resource it books; on success it re-enters scheduled. On conflict
// nothing is persisted.
func (s *Service) Reschedule(ctx context.Context, eventID string, to schedule.Interval, actor string) (schedule.Event, error) {
	if !to.Valid() {
		return schedule.Event{}, &schedule.InvalidIntervalError{Start: to.Start, End: to.End}
	}

	ev, unlock, err := s.lockEventScope(ctx, eventID)
	if err != nil {
		return schedule.Event{}, err
	}
	defer unlock()

	now := s.now()
	if err := ev.Transition(schedule.StatusRescheduled, actor, now); err != nil {
		return schedule.Event{}, err
	}

	scope := ev.Resources()
	active, err := s.repo.FindActiveEventsForResources(ctx, scope)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("fetch active events: %w", err)
	}
	conflicts := schedule.FindConflicts(to, scope, ev.ID, active)
	if len(conflicts) > 0 {
		cerr := schedule.NewConflictError("", "", to, conflicts)
		s.log.Warn("reschedule rejected",
			logx.String("event_id", eventID),
			logx.Int("conflicts", len(conflicts)),
		)
		return schedule.Event{}, cerr
	}

	oldStart, oldEnd := ev.Start, ev.End
	ev.Start, ev.End = to.Start, to.End
	ev.AppendChange("start", oldStart.Format(time.RFC3339), to.Start.Format(time.RFC3339), actor, now)
	ev.AppendChange("end", oldEnd.Format(time.RFC3339), to.End.Format(time.RFC3339), actor, now)
	if err := ev.Transition(schedule.StatusScheduled, actor, now); err != nil {
		return schedule.Event{}, err
	}

	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return schedule.Event{}, fmt.Errorf("persist reschedule: %w", err)
	}
	if err := s.repo.AppendAudit(ctx, storage.AuditEntry{
		At: now, Actor: actor, EventID: ev.ID, Action: "reschedule",
		Field: "interval",
		Old:   oldStart.Format(time.RFC3339) + "/" + oldEnd.Format(time.RFC3339),
		New:   to.Start.Format(time.RFC3339) + "/" + to.End.Format(time.RFC3339),
	}); err != nil {
		s.log.Warn("audit append failed", logx.String("event_id", ev.ID), logx.Err(err))
	}
	s.log.Info("event rescheduled", logx.String("event_id", eventID))
	return ev, nil
}

// Transition applies a status change through the event's state machine.
func (s *Service) Transition(ctx context.Context, eventID string, to schedule.Status, actor string) (schedule.Event, error) {
	unlock := s.locks.Lock("event:" + eventID)
	defer unlock()

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return schedule.Event{}, err
	}
	now := s.now()
	old := ev.Status
	if err := ev.Transition(to, actor, now); err != nil {
		return schedule.Event{}, err
	}
	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return schedule.Event{}, fmt.Errorf("persist transition: %w", err)
	}
	if err := s.repo.AppendAudit(ctx, storage.AuditEntry{
		At: now, Actor: actor, EventID: ev.ID, Action: "transition",
		Field: "status", Old: string(old), New: string(to),
	}); err != nil {
		s.log.Warn("audit append failed", logx.String("event_id", ev.ID), logx.Err(err))
	}
	s.log.Info("event status changed",
		logx.String("event_id", eventID),
		logx.String("from", string(old)),
		logx.String("to", string(to)),
	)
	return ev, nil
}

// Availability reports the busy/free view of one resource over a range.
func (s *Service) Availability(ctx context.Context, resourceID string, rng schedule.Interval) (schedule.Availability, error) {
	if !rng.Valid() {
		return schedule.Availability{}, &schedule.InvalidIntervalError{Start: rng.Start, End: rng.End}
	}
	scope := schedule.ResourceSet{
		People:    []string{resourceID},
		Equipment: []string{resourceID},
	}
	active, err := s.repo.FindActiveEventsForResources(ctx, scope)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("fetch active events: %w", err)
	}
	return schedule.QueryAvailability(resourceID, rng, active), nil
}
