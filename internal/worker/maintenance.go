// Package worker runs the periodic maintenance jobs: resource health
// recompute, buffer provisioning checks and feed ingestion.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/lead-engine/internal/pkg/logger"
)

// DefaultInterval is how often a maintenance pass runs. Health inputs
// move on the scale of hours; minutes of staleness is acceptable.
const DefaultInterval = 5 * time.Minute

// HealthRunner is the slice of the resource service the worker drives.
type HealthRunner interface {
	UpdateAllHealth(ctx context.Context) error
	BufferShortfall(ctx context.Context) (int, error)
}

// FeedRunner ingests pending enrichment files. Optional.
type FeedRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// Lock serializes maintenance passes across processes. Every pass is
// idempotent, so a lost lock only costs duplicate work avoided.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Maintenance is the periodic job runner. All its work is idempotent
// and recomputed from scratch each pass.
type Maintenance struct {
	health   HealthRunner
	feed     FeedRunner
	lock     Lock
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMaintenance creates the maintenance worker. feed may be nil when
// ingestion is disabled.
func NewMaintenance(health HealthRunner, feed FeedRunner, lock Lock, interval time.Duration) *Maintenance {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Maintenance{
		health:   health,
		feed:     feed,
		lock:     lock,
		interval: interval,
	}
}

// Start begins the polling loop. The first pass runs immediately.
func (m *Maintenance) Start() {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.RunOnce(m.ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.RunOnce(m.ctx)
			}
		}
	}()
	logger.Info("maintenance worker started", "interval", m.interval.String())
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (m *Maintenance) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	logger.Info("maintenance worker stopped")
}

// RunOnce executes a single maintenance pass under the distributed
// lock. When another instance holds the lock the pass is skipped; its
// holder is doing the same work.
func (m *Maintenance) RunOnce(ctx context.Context) {
	acquired, err := m.lock.Acquire(ctx)
	if err != nil {
		logger.Error("maintenance lock acquire failed", "error", err.Error())
		return
	}
	if !acquired {
		logger.Debug("maintenance pass skipped, lock held elsewhere")
		return
	}
	defer func() {
		if err := m.lock.Release(ctx); err != nil {
			logger.Warn("maintenance lock release failed", "error", err.Error())
		}
	}()

	start := time.Now()

	if m.feed != nil {
		if n, err := m.feed.RunOnce(ctx); err != nil {
			logger.Error("feed ingestion failed", "error", err.Error())
		} else if n > 0 {
			logger.Info("feed ingestion complete", "records", n)
		}
	}

	if err := m.health.UpdateAllHealth(ctx); err != nil {
		logger.Error("health pass failed", "error", err.Error())
	}

	shortfall, err := m.health.BufferShortfall(ctx)
	if err != nil {
		logger.Error("buffer check failed", "error", err.Error())
	} else if shortfall > 0 {
		logger.Warn("resource buffer below target, provisioning needed", "shortfall", shortfall)
	}

	logger.Info("maintenance pass complete", "elapsed", time.Since(start).String())
}
