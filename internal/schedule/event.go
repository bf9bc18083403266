package schedule

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TypeServiceOrder          EventType = "service_order"
	TypeMaintenance           EventType = "maintenance"
	TypePreventiveMaintenance EventType = "preventive_maintenance"
	TypeInstallation          EventType = "installation"
	TypeTraining              EventType = "training"
	TypeInspection            EventType = "inspection"
	TypeCustom                EventType = "custom"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// Active reports whether the status still counts toward conflict checking.
func (s Status) Active() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Assignee is a (person, role) pair. Role is descriptive only and never
// participates in conflict logic.
type Assignee struct {
	PersonID string `json:"person_id"`
	Role     string `json:"role,omitempty"`
}

// EquipmentUse is a piece of equipment booked for an event.
type EquipmentUse struct {
	EquipmentID string    `json:"equipment_id"`
	Quantity    int       `json:"quantity"`
	AssignedAt  time.Time `json:"assigned_at,omitzero"`
	Note        string    `json:"note,omitempty"`
}

// ChangeEntry is one record of the event's append-only audit trail.
type ChangeEntry struct {
	Field string    `json:"field"`
	Old   string    `json:"old"`
	New   string    `json:"new"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// Event is the scheduling unit.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        EventType `json:"type"`

	// ClientID/ClientName identify the requester (the order's client for
	// service orders). Surfaced in conflict errors so callers can render
	// "already booked for order X of client Y".
	ClientID   string `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Color    string   `json:"color,omitempty"`

	AssignedTo []Assignee     `json:"assigned_to,omitempty"`
	Equipment  []EquipmentUse `json:"equipment,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty"`
	// ParentEventID is set only on generated occurrences; such events never
	// carry an active recurrence of their own.
	ParentEventID string `json:"parent_event_id,omitempty"`

	Changes []ChangeEntry `json:"changes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Event) Interval() Interval { return Interval{Start: e.Start, End: e.End} }

func (e *Event) Active() bool { return e.Status.Active() }

// ReferencesAny reports whether the event books any resource in the scope.
func (e *Event) ReferencesAny(scope ResourceSet) bool {
	for _, a := range e.AssignedTo {
		for _, p := range scope.People {
			if a.PersonID == p {
				return true
			}
		}
	}
	for _, eq := range e.Equipment {
		for _, id := range scope.Equipment {
			if eq.EquipmentID == id {
				return true
			}
		}
	}
	return false
}

// ReferencesResource reports whether the event books the given resource id,
// looking at both people and equipment.
func (e *Event) ReferencesResource(id string) bool {
	for _, a := range e.AssignedTo {
		if a.PersonID == id {
			return true
		}
	}
	for _, eq := range e.Equipment {
		if eq.EquipmentID == id {
			return true
		}
	}
	return false
}

// Resources returns the full resource scope booked by the event.
func (e *Event) Resources() ResourceSet {
	var rs ResourceSet
	for _, a := range e.AssignedTo {
		rs.People = append(rs.People, a.PersonID)
	}
	for _, eq := range e.Equipment {
		rs.Equipment = append(rs.Equipment, eq.EquipmentID)
	}
	return rs
}

// AppendChange records a field mutation on the event's audit trail.
func (e *Event) AppendChange(field, oldVal, newVal, actor string, at time.Time) {
	e.Changes = append(e.Changes, ChangeEntry{
		Field: field,
		Old:   oldVal,
		New:   newVal,
		Actor: actor,
		At:    at,
	})
}

// ResourceSet scopes a conflict check to specific people and equipment.
type ResourceSet struct {
	People    []string
	Equipment []string
}

func (rs ResourceSet) Empty() bool { return len(rs.People) == 0 && len(rs.Equipment) == 0 }

// Keys returns stable lock keys, one per resource, kind-prefixed so a person
// and a machine with the same raw id never alias.
func (rs ResourceSet) Keys() []string {
	keys := make([]string, 0, len(rs.People)+len(rs.Equipment))
	for _, p := range rs.People {
		keys = append(keys, "person:"+p)
	}
	for _, e := range rs.Equipment {
		keys = append(keys, "equipment:"+e)
	}
	return keys
}

// PeopleSet returns a scope holding a single person.
func PeopleSet(personID string) ResourceSet { return ResourceSet{People: []string{personID}} }

// EquipmentSet returns a scope holding a single piece of equipment.
func EquipmentSet(equipmentID string) ResourceSet {
	return ResourceSet{Equipment: []string{equipmentID}}
}

// ---- Factory ----

// Draft is the caller-supplied shape of a new event before defaults apply.
type Draft struct {
	Title       string
	Description string
	Type        EventType
	ClientID    string
	ClientName  string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Priority    Priority
	Color       string
	AssignedTo  []Assignee
	Equipment   []EquipmentUse
	Recurrence  *Recurrence
}

// Per-type presentation defaults. These used to live in a persistence
// pre-save hook; they are applied here, once, at creation time.
var typeDefaults = map[EventType]struct {
	title string
	color string
}{
	TypeServiceOrder:          {"Service order", "#2e7d32"},
	TypeMaintenance:           {"Maintenance", "#f9a825"},
	TypePreventiveMaintenance: {"Preventive maintenance", "#00838f"},
	TypeInstallation:          {"Installation", "#6a1b9a"},
	TypeTraining:              {"Training", "#1565c0"},
	TypeInspection:            {"Inspection", "#ef6c00"},
	TypeCustom:                {"Event", "#455a64"},
}

// NewEvent validates a draft and builds the event with defaults applied.
// It does not persist anything and does not expand recurrence.
func NewEvent(d Draft, now time.Time) (Event, error) {
	iv := Interval{Start: d.Start, End: d.End}
	if !iv.Valid() {
		return Event{}, &InvalidIntervalError{Start: d.Start, End: d.End}
	}
	if d.Recurrence != nil {
		if err := d.Recurrence.Validate(); err != nil {
			return Event{}, err
		}
	}

	typ := d.Type
	if typ == "" {
		typ = TypeCustom
	}
	def := typeDefaults[typ]

	title := d.Title
	if title == "" {
		title = def.title
	}
	color := d.Color
	if color == "" {
		color = def.color
	}
	prio := d.Priority
	if prio == "" {
		prio = PriorityMedium
	}

	return Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: d.Description,
		Type:        typ,
		ClientID:    d.ClientID,
		ClientName:  d.ClientName,
		Start:       d.Start,
		End:         d.End,
		AllDay:      d.AllDay,
		Status:      StatusScheduled,
		Priority:    prio,
		Color:       color,
		AssignedTo:  append([]Assignee(nil), d.AssignedTo...),
		Equipment:   append([]EquipmentUse(nil), d.Equipment...),
		Recurrence:  d.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ---- Status machine ----

var transitions = map[Status][]Status{
	StatusScheduled:   {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:   {StatusInProgress, StatusCancelled, StatusRescheduled},
	StatusInProgress:  {StatusCompleted, StatusCancelled, StatusRescheduled},
	StatusRescheduled: {StatusScheduled, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, n := range transitions[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Transition applies a status change, recording it on the audit trail.
func (e *Event) Transition(to Status, actor string, at time.Time) error {
	if !CanTransition(e.Status, to) {
		return &TransitionError{From: e.Status, To: to}
	}
	e.AppendChange("status", string(e.Status), string(to), actor, at)
	e.Status = to
	e.UpdatedAt = at
	return nil
}
