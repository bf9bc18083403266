package booking

import (
	"errors"

	"arborsched/internal/schedule"
)

// ErrEventClosed reports an attempt to mutate a completed or cancelled event.
var ErrEventClosed = errors.New("event is completed or cancelled")

// CreateResult is the outcome of CreateEvent: the persisted base event plus
// any recurrence occurrences materialized alongside it.
type CreateResult struct {
	Event       schedule.Event
	Occurrences []schedule.Event
}

// Assignment operation states, logged as the validation progresses.
// The operation itself moves requested -> checking -> approved/rejected;
// the event's own status is untouched by an assignment.
const (
	opRequested = "requested"
	opChecking  = "checking"
	opApproved  = "approved"
	opRejected  = "rejected"
)
