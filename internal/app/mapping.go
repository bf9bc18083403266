package app

import (
	"fmt"
	"strings"
	"time"

	"arborsched/internal/config"
	"arborsched/internal/observability/pprof"
	"arborsched/internal/services/planner"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Alerts: logx.AlertsConfig{
			Enabled:    cfg.Logging.Alerts.Enabled,
			Path:       cfg.Logging.Alerts.Path,
			MinLevel:   cfg.Logging.Alerts.MinLevel,
			RatePerSec: cfg.Logging.Alerts.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	path := strings.TrimSpace(sc.Path)
	dsn := strings.TrimSpace(sc.DSN)

	switch driver {
	case "", "memory":
		return storage.Config{Driver: "memory"}, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, nil
	case "postgres", "postgresql":
		if dsn == "" {
			return storage.Config{}, fmt.Errorf("storage.dsn is required when storage.driver=postgres")
		}
		return storage.Config{Driver: "postgres", DSN: dsn}, nil
	default:
		return storage.Config{}, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapPlannerConfig(cfg *config.Config) (planner.Config, error) {
	pc := cfg.Planner

	if pc.Workers < 0 {
		return planner.Config{}, fmt.Errorf("planner.workers must be >= 0")
	}
	if pc.HistorySize < 0 {
		return planner.Config{}, fmt.Errorf("planner.history_size must be >= 0")
	}
	if tz := strings.TrimSpace(pc.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return planner.Config{}, fmt.Errorf("planner.timezone: invalid %q: %w", tz, err)
		}
	}
	retention, err := config.ParseDurationOrDefault("planner.audit_retention", pc.AuditRetention, 90*24*time.Hour)
	if err != nil {
		return planner.Config{}, err
	}

	return planner.Config{
		Enabled:          pc.Enabled,
		Workers:          pc.Workers,
		HistorySize:      pc.HistorySize,
		Timezone:         pc.Timezone,
		DigestSpec:       pc.DigestSpec,
		RetentionSpec:    pc.RetentionSpec,
		AuditRetention:   retention,
		TrackedResources: append([]string(nil), pc.TrackedResources...),
	}, nil
}

func mapPprofConfig(cfg *config.Config) (pprof.Config, error) {
	pc := cfg.Pprof

	readTO, err := config.ParseDurationField("pprof.read_timeout", pc.ReadTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	writeTO, err := config.ParseDurationField("pprof.write_timeout", pc.WriteTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	idleTO, err := config.ParseDurationField("pprof.idle_timeout", pc.IdleTimeout)
	if err != nil {
		return pprof.Config{}, err
	}

	return pprof.Config{
		Enabled:       pc.Enabled,
		Addr:          pc.Addr,
		Prefix:        pc.Prefix,
		Token:         pc.Token,
		AllowInsecure: pc.AllowInsecure,
		ReadTimeout:   readTO,
		WriteTimeout:  writeTO,
		IdleTimeout:   idleTO,
	}, nil
}
