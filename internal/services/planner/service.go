package planner

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"arborsched/internal/booking"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

func New(cfg Config, repo storage.Store, book *booking.Service, log logx.Logger) *Service {
	return &Service{
		cfg:  cfg,
		repo: repo,
		book: book,
		log:  log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Enabled reports the current config flag. (Thread-safe; Apply() may run concurrently.)
func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	newTZ := strings.TrimSpace(cfg.Timezone)
	specsChanged := s.cfg.DigestSpec != cfg.DigestSpec || s.cfg.RetentionSpec != cfg.RetentionSpec
	s.cfg = cfg

	if s.stopCh == nil {
		return
	}
	if oldTZ != newTZ || specsChanged {
		// restart cron with new location/specs and re-register job definitions
		s.restartLocked()
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	cur := s.cfg
	s.mu.Unlock()
	s.log.Debug("start requested",
		logx.Bool("enabled", cur.Enabled),
		logx.Int("workers", cur.Workers),
		logx.String("tz", strings.TrimSpace(cur.Timezone)),
	)
	// If a Stop() is in progress, wait for it to complete (prevents double worker pools).
	for {
		s.mu.Lock()
		if s.stopCh == nil {
			break
		}
		done := s.stopDone
		// already running (no stop in progress)
		if done == nil {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		select {
		case <-done:
			// loop and try again
		case <-ctx.Done():
			return
		}
	}
	defer s.mu.Unlock()
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	// Fresh queue per run to avoid executing stale jobs after a stop/start toggle.
	s.queue = make(chan job, 64)

	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	s.registerJobsLocked()
	for i := range s.defs {
		s.addCronLocked(&s.defs[i])
	}

	// Local captures prevent races if fields are swapped/nilled during Stop().
	runCtx := s.runCtx
	stopCh := s.stopCh
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in planner worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
				}
			}()
			s.worker(runCtx, stopCh, queue, idx)
		}()
	}
	s.c.Start()
	s.log.Info("service started",
		logx.Int("workers", workers),
		logx.String("tz", loc.String()),
		logx.Int("jobs", len(s.defs)),
	)
}

func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.log.Info("stop requested")
	// If a stop is already in progress, just wait (best-effort).
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
	// Initiate stop.
	done := make(chan struct{})
	s.stopDone = done
	stopCh := s.stopCh
	cancel := s.runCancel
	c := s.c
	// prevent new cron enqueues quickly
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	close(stopCh)
	if cancel != nil {
		cancel()
	}

	if c != nil {
		<-c.Stop().Done()
	}

	// finalize cleanup in background so Stop() can return on timeout safely.
	go func() {
		s.workerWG.Wait()
		s.mu.Lock()
		s.stopCh = nil
		s.runCtx = nil
		s.queue = nil
		s.defs = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		// stop continues in background
		return
	}
}

// restartLocked tears down the running cron and rebuilds it from the current
// config. Caller holds s.mu.
func (s *Service) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	s.defs = nil
	s.registerJobsLocked()
	for i := range s.defs {
		s.addCronLocked(&s.defs[i])
	}
	s.c.Start()
	s.log.Info("planner restarted", logx.String("tz", loc.String()), logx.Int("jobs", len(s.defs)))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// registerJobsLocked builds the job definitions from the current config.
// Caller holds s.mu.
func (s *Service) registerJobsLocked() {
	digestSpec := strings.TrimSpace(s.cfg.DigestSpec)
	if digestSpec == "" {
		digestSpec = "0 6 * * *"
	}
	s.defs = append(s.defs, jobDef{
		name:    "availability_digest",
		spec:    digestSpec,
		timeout: 30 * time.Second,
		run:     s.runDigest,
	})

	if s.cfg.AuditRetention > 0 {
		retentionSpec := strings.TrimSpace(s.cfg.RetentionSpec)
		if retentionSpec == "" {
			retentionSpec = "30 3 * * *"
		}
		s.defs = append(s.defs, jobDef{
			name:    "audit_retention",
			spec:    retentionSpec,
			timeout: time.Minute,
			run:     s.runRetention,
		})
	}
}

func (s *Service) addCronLocked(def *jobDef) {
	d := def
	id, err := s.c.AddFunc(d.spec, func() {
		s.enqueue(job{name: d.name, timeout: d.timeout, run: d.run})
	})
	if err != nil {
		s.log.Warn("invalid cron spec; job skipped",
			logx.String("job", d.name),
			logx.String("spec", d.spec),
			logx.Err(err),
		)
		return
	}
	d.entryID = id
}

// Snapshot returns a point-in-time view for diagnostics.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Enabled:  s.cfg.Enabled,
		Timezone: strings.TrimSpace(s.cfg.Timezone),
		Workers:  s.cfg.Workers,
	}
	if s.queue != nil {
		snap.QueueLen = len(s.queue)
	}
	c := s.c
	defs := make([]jobDef, len(s.defs))
	copy(defs, s.defs)
	s.mu.Unlock()

	for _, d := range defs {
		info := JobInfo{Name: d.name, Spec: d.spec}
		if c != nil {
			e := c.Entry(d.entryID)
			info.Next = e.Next
			info.Prev = e.Prev
		}
		snap.Jobs = append(snap.Jobs, info)
	}

	s.hmu.Lock()
	snap.History = append(snap.History, s.history...)
	s.hmu.Unlock()
	return snap
}
