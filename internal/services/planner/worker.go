package planner

import (
	"context"
	"time"

	logx "arborsched/pkg/logx"
)

func (s *Service) enqueue(j job) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Debug("planner not running; dropping job", logx.String("job", j.name))
		return
	}
	select {
	case q <- j:
	default:
		s.log.Warn("planner queue full; dropping job",
			logx.String("job", j.name),
			logx.Int("queue_len", len(q)),
			logx.Int("queue_cap", cap(q)),
		)
	}
}

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue <-chan job, idx int) {
	for {
		// Fast-exit check so a closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case j := <-queue:
			s.execOne(ctx, j)
		}
	}
}

func (s *Service) execOne(ctx context.Context, j job) {
	start := time.Now()

	runCtx := ctx
	var cancel func()
	if j.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, j.timeout)
	}
	err := j.run(runCtx)
	if cancel != nil {
		cancel()
	}
	dur := time.Since(start)

	item := HistoryItem{Name: j.name, Started: start, Duration: dur}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job failed", logx.String("job", j.name), logx.Err(err), logx.Duration("dur", dur))
	} else {
		s.log.Debug("job completed", logx.String("job", j.name), logx.Duration("dur", dur))
	}

	s.mu.Lock()
	historySize := s.cfg.HistorySize
	s.mu.Unlock()
	// A zero/negative history_size would otherwise grow without bound.
	if historySize <= 0 {
		historySize = 200
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}
