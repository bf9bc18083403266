// Package schedule holds the pure scheduling core: time-interval overlap,
// conflict detection against active bookings, recurrence expansion, and
// per-resource availability.
//
// Everything here is a synchronous computation over an in-memory snapshot of
// events supplied by the caller. Persistence, locking and orchestration live
// in the booking service.
package schedule
