package nodemanager

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/m-lab/darkseed/address"
	"github.com/m-lab/darkseed/metrics"
)

// DefaultRefreshInterval is the default period between snapshot refreshes.
const DefaultRefreshInterval = 600 * time.Second

// Manager periodically loads the newest crawler snapshot from Dir and
// publishes it as the current Pool. Readers call Sample (or Current) and
// operate on whatever Pool they observed; a concurrent refresh never shows
// them a partially updated view.
type Manager struct {
	// Dir is the directory containing crawler snapshot files.
	Dir string
	// RefreshInterval is the period between snapshot loads. Zero means
	// DefaultRefreshInterval.
	RefreshInterval time.Duration

	pool atomic.Pointer[Pool]
}

// Current returns the most recently published Pool. Before the first
// successful refresh it returns an empty, non-nil Pool so that callers can
// sample from it without a nil check.
func (m *Manager) Current() *Pool {
	p := m.pool.Load()
	if p == nil {
		return newPool(nil)
	}
	return p
}

// Sample draws up to k addresses uniformly at random from net's current
// pool. See Pool.Sample for the exact contract.
func (m *Manager) Sample(net address.NetworkType, k int) []address.Address {
	return m.Current().Sample(net, k)
}

// Refresh performs a single load-and-publish cycle: locate the newest
// snapshot, parse it, and atomically swap it in as the current pool. A
// missing or malformed snapshot leaves the previously published pool
// intact; the error is returned for logging by the caller but is always
// recoverable — Run never stops because of it.
func (m *Manager) Refresh() error {
	path, err := LatestSnapshot(m.Dir)
	if err != nil {
		metrics.RefreshFailures.Inc()
		return err
	}
	nodes, stats, err := LoadSnapshot(path)
	if err != nil {
		metrics.RefreshFailures.Inc()
		return err
	}

	newPool := newPool(nodes)
	m.pool.Store(newPool)

	log.Printf("Updated node pool from %s: total=%d bad_port=%d incomplete_handshake=%d good=%d",
		path, stats.Total, stats.BadPort, stats.IncompleteHandshake, stats.Good)
	for net, count := range stats.ByNetwork {
		log.Printf("  pool[%s] = %d", net, count)
		metrics.PoolSize.WithLabelValues(net.String()).Set(float64(count))
	}
	metrics.RefreshTotal.Inc()
	metrics.RefreshRowsTotal.Add(float64(stats.Total))
	metrics.RefreshRowsBadPort.Add(float64(stats.BadPort))
	metrics.RefreshRowsIncompleteHandshake.Add(float64(stats.IncompleteHandshake))
	metrics.RefreshRowsGood.Add(float64(stats.Good))
	return nil
}

// Run performs an initial Refresh and then repeats it every
// RefreshInterval until ctx is cancelled. Refresh failures are logged and
// do not stop the loop.
func (m *Manager) Run(ctx context.Context) {
	interval := m.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	if err := m.Refresh(); err != nil {
		log.Printf("nodemanager: initial refresh failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(); err != nil {
				log.Printf("nodemanager: refresh failed: %v", err)
			}
		}
	}
}
