package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps coarse process-wide counters for the /metrics endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rejected        uint64
	rateLimited     uint64
	ledgerMutations uint64
	totalDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 409 || status == 422 {
		atomic.AddUint64(&c.rejected, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordMutation counts committed ledger writes (create, delete, adjust).
func (c *Collector) RecordMutation() {
	atomic.AddUint64(&c.ledgerMutations, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	rejected := atomic.LoadUint64(&c.rejected)
	limited := atomic.LoadUint64(&c.rateLimited)
	mutations := atomic.LoadUint64(&c.ledgerMutations)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rejectedTotal":        rejected,
		"rateLimitedTotal":     limited,
		"ledgerMutationsTotal": mutations,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
	}
}
