package planner

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"arborsched/internal/booking"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

// Config controls the planner service.
type Config struct {
	Enabled     bool
	Workers     int
	HistorySize int
	Timezone    string // IANA TZ, e.g. "America/Chicago"

	// DigestSpec / RetentionSpec are cron specs evaluated in Timezone.
	DigestSpec    string
	RetentionSpec string

	// AuditRetention is how long audit entries are kept; zero disables pruning.
	AuditRetention time.Duration

	// TrackedResources lists the resource ids the digest reports on.
	TrackedResources []string
}

type HistoryItem struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

type job struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

type jobDef struct {
	name    string
	spec    string
	entryID cron.EntryID
	run     func(ctx context.Context) error
	timeout time.Duration
}

type Service struct {
	mu sync.Mutex

	log  logx.Logger
	cfg  Config
	loc  *time.Location
	repo storage.Store
	book *booking.Service

	parser cron.Parser
	c      *cron.Cron
	defs   []jobDef

	queue  chan job
	stopCh chan struct{}
	// stopDone is non-nil while a Stop() is in progress; it is closed when
	// workers fully exit.
	stopDone chan struct{}

	hmu     sync.Mutex
	history []HistoryItem

	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
}

type JobInfo struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type Snapshot struct {
	Enabled  bool
	Timezone string
	Workers  int
	QueueLen int
	Jobs     []JobInfo
	History  []HistoryItem
}
