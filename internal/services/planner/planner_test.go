package planner

import (
	"context"
	"testing"
	"time"

	"arborsched/internal/booking"
	"arborsched/internal/storage"
	logx "arborsched/pkg/logx"
)

func newTestPlanner(cfg Config) (*Service, *storage.Memory) {
	mem := storage.NewMemory()
	book := booking.New(mem, logx.Nop())
	return New(cfg, mem, book, logx.Nop()), mem
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()
	svc, _ := newTestPlanner(Config{
		Enabled:          true,
		Workers:          1,
		AuditRetention:   90 * 24 * time.Hour,
		TrackedResources: []string{"E3"},
	})

	ctx := context.Background()
	svc.Start(ctx)

	snap := svc.Snapshot()
	if len(snap.Jobs) != 2 {
		t.Fatalf("expected digest and retention jobs, got %d", len(snap.Jobs))
	}
	names := map[string]string{}
	for _, j := range snap.Jobs {
		names[j.Name] = j.Spec
	}
	if names["availability_digest"] != "0 6 * * *" {
		t.Fatalf("digest spec default = %q", names["availability_digest"])
	}
	if names["audit_retention"] != "30 3 * * *" {
		t.Fatalf("retention spec default = %q", names["audit_retention"])
	}

	svc.Stop(ctx)
	// Stop must be idempotent.
	svc.Stop(ctx)
}

func TestRetentionDisabledWithoutDuration(t *testing.T) {
	t.Parallel()
	svc, _ := newTestPlanner(Config{Enabled: true})
	svc.Start(context.Background())
	defer svc.Stop(context.Background())

	for _, j := range svc.Snapshot().Jobs {
		if j.Name == "audit_retention" {
			t.Fatal("retention job must not register without a retention duration")
		}
	}
}

func TestRunRetentionPrunes(t *testing.T) {
	t.Parallel()
	svc, mem := newTestPlanner(Config{AuditRetention: 48 * time.Hour})

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 4; i++ {
		e := storage.AuditEntry{At: now.Add(-time.Duration(i) * 24 * time.Hour), Action: "create"}
		if err := mem.AppendAudit(ctx, e); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	if err := svc.runRetention(ctx); err != nil {
		t.Fatalf("runRetention: %v", err)
	}
	if mem.AuditLen() != 3 {
		t.Fatalf("expected entries older than 48h gone, %d left", mem.AuditLen())
	}
}

func TestRunDigestNoResources(t *testing.T) {
	t.Parallel()
	svc, _ := newTestPlanner(Config{})
	if err := svc.runDigest(context.Background()); err != nil {
		t.Fatalf("digest with no tracked resources must be a no-op, got %v", err)
	}
}

func TestExecOneBoundsHistory(t *testing.T) {
	t.Parallel()
	svc, _ := newTestPlanner(Config{HistorySize: 3})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		svc.execOne(ctx, job{name: "noop", run: func(context.Context) error { return nil }})
	}
	snap := svc.Snapshot()
	if len(snap.History) != 3 {
		t.Fatalf("history must be capped at 3, got %d", len(snap.History))
	}
}
