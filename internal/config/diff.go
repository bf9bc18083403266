package config

import (
	"sort"
	"strings"

	logx "arborsched/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured attrs for logging (never includes secrets like the pprof token).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 16)

	// Logging
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.alerts_enabled", newCfg.Logging.Alerts.Enabled),
		)
	}

	// Pprof (never log token)
	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(newCfg.Pprof.Addr)),
			logx.Bool("pprof.token_set", strings.TrimSpace(newCfg.Pprof.Token) != ""),
			logx.Bool("pprof.allow_insecure", newCfg.Pprof.AllowInsecure),
		)
	}

	// Planner
	if !plannerEqual(oldCfg.Planner, newCfg.Planner) {
		changed = append(changed, "planner")
		attrs = append(attrs,
			logx.Bool("planner.enabled", newCfg.Planner.Enabled),
			logx.Int("planner.workers", newCfg.Planner.Workers),
			logx.String("planner.digest_spec", strings.TrimSpace(newCfg.Planner.DigestSpec)),
			logx.String("planner.retention_spec", strings.TrimSpace(newCfg.Planner.RetentionSpec)),
			logx.Int("planner.tracked_resources", len(newCfg.Planner.TrackedResources)),
			logx.String("planner.timezone", strings.TrimSpace(newCfg.Planner.Timezone)),
		)
	}

	// Storage. Nil section means the in-memory store.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet, oDSNSet, nDSNSet bool
	if s := oldCfg.Storage; s != nil {
		oDriver = strings.TrimSpace(s.Driver)
		oBusy = strings.TrimSpace(s.BusyTimeout)
		oPathSet = strings.TrimSpace(s.Path) != ""
		oDSNSet = strings.TrimSpace(s.DSN) != ""
	}
	if s := newCfg.Storage; s != nil {
		nDriver = strings.TrimSpace(s.Driver)
		nBusy = strings.TrimSpace(s.BusyTimeout)
		nPathSet = strings.TrimSpace(s.Path) != ""
		nDSNSet = strings.TrimSpace(s.DSN) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet || oDSNSet != nDSNSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.Bool("storage.dsn_set", nDSNSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func plannerEqual(a, b PlannerConfig) bool {
	if a.Enabled != b.Enabled ||
		a.Workers != b.Workers ||
		a.HistorySize != b.HistorySize ||
		strings.TrimSpace(a.DigestSpec) != strings.TrimSpace(b.DigestSpec) ||
		strings.TrimSpace(a.RetentionSpec) != strings.TrimSpace(b.RetentionSpec) ||
		strings.TrimSpace(a.AuditRetention) != strings.TrimSpace(b.AuditRetention) ||
		strings.TrimSpace(a.Timezone) != strings.TrimSpace(b.Timezone) {
		return false
	}
	if len(a.TrackedResources) != len(b.TrackedResources) {
		return false
	}
	for i := range a.TrackedResources {
		if a.TrackedResources[i] != b.TrackedResources[i] {
			return false
		}
	}
	return true
}
