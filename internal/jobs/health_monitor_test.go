package jobs

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
)

type fakePinger struct {
	err   error
	calls atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestCheckHealthy(t *testing.T) {
	sql, docs := &fakePinger{}, &fakePinger{}
	m := NewHealthMonitor("@every 30s", sql, docs, zaptest.NewLogger(t))

	snap := m.Check(context.Background())
	if !snap.Healthy() {
		t.Fatalf("expected healthy snapshot, got %+v", snap)
	}
	if snap.SQL != "ok" || snap.Documents != "ok" {
		t.Errorf("unexpected check results %+v", snap)
	}
	if m.Last() != snap {
		t.Error("Last should return the latest snapshot")
	}
}

func TestCheckReportsFailure(t *testing.T) {
	sql := &fakePinger{}
	docs := &fakePinger{err: errors.New("server selection timeout")}
	m := NewHealthMonitor("@every 30s", sql, docs, zaptest.NewLogger(t))

	snap := m.Check(context.Background())
	if snap.Healthy() {
		t.Fatal("expected unhealthy snapshot")
	}
	if !strings.Contains(snap.Documents, "server selection timeout") {
		t.Errorf("expected the ping error in the snapshot, got %q", snap.Documents)
	}

	docs.err = nil
	if snap := m.Check(context.Background()); !snap.Healthy() {
		t.Errorf("expected recovery, got %+v", snap)
	}
}

func TestCheckWithoutDocumentStore(t *testing.T) {
	m := NewHealthMonitor("@every 30s", &fakePinger{}, nil, zaptest.NewLogger(t))

	snap := m.Check(context.Background())
	if snap.Documents != "disabled" || !snap.Healthy() {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestStartRunsImmediately(t *testing.T) {
	sql, docs := &fakePinger{}, &fakePinger{}
	m := NewHealthMonitor("@every 1h", sql, docs, zaptest.NewLogger(t))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	if sql.calls.Load() != 1 || docs.calls.Load() != 1 {
		t.Errorf("expected one ping per store on start, got %d/%d", sql.calls.Load(), docs.calls.Load())
	}
	if m.Last().CheckedAt.IsZero() {
		t.Error("expected a snapshot after Start")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	m := NewHealthMonitor("every now and then", &fakePinger{}, &fakePinger{}, zaptest.NewLogger(t))
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected an error for an invalid cron spec")
	}
}
