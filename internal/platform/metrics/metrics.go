package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	timeouts        uint64
	totalDurationMs uint64
	mirrorFailures  uint64
	jobFailures     uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	switch status {
	case 429:
		atomic.AddUint64(&c.rateLimited, 1)
	case 504:
		atomic.AddUint64(&c.timeouts, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordMirrorFailure counts resolutions whose finalized copy was not written.
func (c *Collector) RecordMirrorFailure() {
	atomic.AddUint64(&c.mirrorFailures, 1)
}

func (c *Collector) RecordJobFailure() {
	atomic.AddUint64(&c.jobFailures, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":    atomic.LoadUint64(&c.rateLimited),
		"timeoutsTotal":       atomic.LoadUint64(&c.timeouts),
		"avgDurationMs":       avg,
		"totalDurationMs":     totalMs,
		"mirrorFailuresTotal": atomic.LoadUint64(&c.mirrorFailures),
		"jobFailuresTotal":    atomic.LoadUint64(&c.jobFailures),
	}
}
