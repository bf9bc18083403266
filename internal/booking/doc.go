// Package booking orchestrates the scheduling core against the event
// repository: event creation with recurrence materialization, equipment and
// technician assignment with conflict validation, rescheduling, status
// transitions, and availability queries.
//
// Every check-then-write runs under a per-resource lock so a conflict check
// and its resulting write form one logical unit. Without that guard two
// concurrent requests could both pass the check and double-book a resource.
package booking
