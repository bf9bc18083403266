// Package app wires the scheduling core together: config loading with hot
// reload, logging, storage, the booking service, the planner, and the
// optional pprof server.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"arborsched/internal/booking"
	"arborsched/internal/config"
	"arborsched/internal/observability/pprof"
	"arborsched/internal/services/planner"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.ConfigManager

	log  logx.Logger
	logs *logx.Service

	store storage.Store
	book  *booking.Service

	planner *planner.Service
	pprof   *pprof.Service

	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	log.Info("storage opened", logx.String("driver", sc.Driver))

	book := booking.New(store, log.With(logx.String("comp", "booking")))

	plCfg, err := mapPlannerConfig(cfg)
	if err != nil {
		return nil, err
	}
	plSvc := planner.New(plCfg, store, book, log.With(logx.String("comp", "planner")))

	ppCfg, err := mapPprofConfig(cfg)
	if err != nil {
		return nil, err
	}
	ppSvc := pprof.New(ppCfg, log)

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		book:    book,
		planner: plSvc,
		pprof:   ppSvc,
	}, nil
}

// Booking exposes the scheduling operations to callers embedding the app.
func (a *App) Booking() *booking.Service { return a.book }

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		if _, err := mapPlannerConfig(cfg); err != nil {
			return err
		}
		if _, err := mapPprofConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	if a.planner.Enabled() {
		a.planner.Start(runCtx)
	}
	if a.pprof.Enabled() {
		a.pprof.Start()
	}

	// hot reload fan-out
	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(runCtx, sub)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()

	a.log.Info("app started")
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeConfigChange(lastApplied, newCfg)
			lastApplied = newCfg
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}

			a.logs.Apply(mapLogConfig(newCfg))

			prevEnabled := a.planner.Enabled()
			plCfg, err := mapPlannerConfig(newCfg)
			if err != nil {
				a.log.Warn("invalid planner config; keeping previous", logx.Err(err))
			} else {
				a.planner.Apply(plCfg)
				if prevEnabled && !plCfg.Enabled {
					a.log.Info("planner disabled via config")
					stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
					a.planner.Stop(stopCtx)
					cancel()
				} else if !prevEnabled && plCfg.Enabled {
					a.log.Info("planner enabled via config")
					a.planner.Start(ctx)
				}
			}

			ppCfg, err := mapPprofConfig(newCfg)
			if err != nil {
				a.log.Warn("invalid pprof config; keeping previous", logx.Err(err))
			} else {
				a.pprof.Reconfigure(ctx, ppCfg)
			}

			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config reloaded", fields...)
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.runCancel != nil {
		a.runCancel()
	}

	// Run each shutdown step with an upper bound so one component can't stall
	// the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("planner", 2*time.Second, func(c context.Context) error { a.planner.Stop(c); return nil })
	step("pprof", time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	waitDone := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-ctx.Done():
	}

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
