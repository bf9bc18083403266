package storage

// Package storage provides the event repository used by the booking service.
//
// It currently supports:
//   - Event rows (insert/update/fetch, active-set queries per resource scope)
//   - Append-only audit of booking operations, with retention pruning
//
// Drivers: in-memory (default, also the test fake), SQLite, PostgreSQL.
