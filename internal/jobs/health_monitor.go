package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger is a backing store that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	checkTimeout = 5 * time.Second
	checkFailed  = "error"
)

// Snapshot is the result of the last health check.
type Snapshot struct {
	SQL       string    `json:"sql"`
	Documents string    `json:"documents"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether no check in the snapshot failed.
func (s Snapshot) Healthy() bool {
	return !strings.HasPrefix(s.SQL, checkFailed) && !strings.HasPrefix(s.Documents, checkFailed)
}

// HealthMonitor periodically pings the relational and document stores.
type HealthMonitor struct {
	cron      *cron.Cron
	spec      string
	sql       Pinger
	documents Pinger
	log       *zap.Logger

	mu   sync.RWMutex
	last Snapshot
}

// NewHealthMonitor creates a monitor firing on the given cron spec,
// e.g. "@every 30s".
func NewHealthMonitor(spec string, sql, documents Pinger, log *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		cron:      cron.New(),
		spec:      spec,
		sql:       sql,
		documents: documents,
		log:       log,
	}
}

// Start runs one check right away and then schedules the rest.
func (m *HealthMonitor) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.spec, func() { m.Check(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	m.Check(ctx)
	m.cron.Start()
	m.log.Info("health monitor started", zap.String("spec", m.spec))
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
	m.log.Info("health monitor stopped")
}

// Check pings both stores and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) Snapshot {
	snap := Snapshot{
		SQL:       m.ping(ctx, "sql", m.sql),
		Documents: m.ping(ctx, "documents", m.documents),
		CheckedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	changed := m.last.Healthy() != snap.Healthy() || m.last.CheckedAt.IsZero()
	m.last = snap
	m.mu.Unlock()

	if changed {
		if snap.Healthy() {
			m.log.Info("stores healthy")
		} else {
			m.log.Warn("store check failed",
				zap.String("sql", snap.SQL),
				zap.String("documents", snap.Documents))
		}
	}
	return snap
}

// Last returns the most recent snapshot. CheckedAt is zero before the first
// check.
func (m *HealthMonitor) Last() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *HealthMonitor) ping(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		m.log.Debug("ping failed", zap.String("store", name), zap.Error(err))
		return checkFailed + ": " + err.Error()
	}
	return "ok"
}
