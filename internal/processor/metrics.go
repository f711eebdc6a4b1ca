package processor

import (
	"sync/atomic"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
)

// ServiceMetrics keeps in-process counters for the periodic log line and
// mirrors every observation to prometheus.
type ServiceMetrics struct {
	totalProcessed  int64
	totalFailed     int64
	totalDurationNs int64
	startedNs       int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		startedNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordSuccess(duration time.Duration) {
	atomic.AddInt64(&m.totalProcessed, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
	prom.IncJobProcessed("success")
	prom.ObserveJobDuration(duration.Seconds())
}

func (m *ServiceMetrics) RecordFailure() {
	atomic.AddInt64(&m.totalFailed, 1)
	prom.IncJobProcessed("failure")
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	processed := atomic.LoadInt64(&m.totalProcessed)
	failed := atomic.LoadInt64(&m.totalFailed)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	started := atomic.LoadInt64(&m.startedNs)

	avg := time.Duration(0)
	if processed > 0 {
		avg = time.Duration(durationNs / processed)
	}

	return map[string]interface{}{
		"total_processed": processed,
		"total_failed":    failed,
		"avg_duration_ms": avg.Milliseconds(),
		"uptime_seconds":  time.Since(time.Unix(0, started)).Seconds(),
	}
}
