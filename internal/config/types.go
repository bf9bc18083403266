package config

type Config struct {
	Logging LoggingConfig `json:"logging"`
	Pprof   PprofConfig   `json:"pprof,omitempty"`

	// Planner controls the background maintenance service (availability
	// digests, audit retention).
	Planner PlannerConfig `json:"planner"`

	// Storage selects the event repository. Nil or empty driver means the
	// in-memory store.
	Storage *StorageConfig `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LoggingFile   `json:"file"`
	Alerts  LoggingAlerts `json:"alerts"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingAlerts mirrors warn+ records (conflicts, rejected bookings) into a
// separate JSONL file.
type LoggingAlerts struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./arborsched.db" }
//	"storage": { "driver": "postgres", "dsn": "postgres://..." }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	DSN         string `json:"dsn,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PlannerConfig controls the cron-driven maintenance service.
//
// Defaults (when fields are omitted/zero):
//   - workers: 2
//   - history_size: 200
//   - digest_spec: "0 6 * * *" (daily 06:00)
//   - retention_spec: "30 3 * * *" (daily 03:30)
//   - audit_retention: "2160h" (90 days)
type PlannerConfig struct {
	Enabled bool `json:"enabled"`

	Workers     int `json:"workers,omitempty"`
	HistorySize int `json:"history_size,omitempty"`

	// Cron specs in standard 5-field syntax, evaluated in Timezone.
	DigestSpec    string `json:"digest_spec,omitempty"`
	RetentionSpec string `json:"retention_spec,omitempty"`

	// AuditRetention is a Go duration string; audit entries older than this
	// are pruned by the retention job.
	AuditRetention string `json:"audit_retention,omitempty"`

	// TrackedResources lists resource ids the availability digest reports on.
	TrackedResources []string `json:"tracked_resources,omitempty"`

	Timezone string `json:"timezone,omitempty"`
}

// PprofConfig controls the optional pprof HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:6060").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type PprofConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`   // default: "127.0.0.1:6060"
	Prefix        string `json:"prefix,omitempty"` // default: "/debug/pprof/"
	Token         string `json:"token,omitempty"`  // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`

	// Server timeouts (Go duration strings). WriteTimeout defaults to 0 (disabled)
	// so /profile (which can take 30s+) works reliably.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}
