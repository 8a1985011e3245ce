package scheduler

import (
	"sync"
	"time"
)

// SchedulerMetrics tracks purge passes
type SchedulerMetrics struct {
	mu               sync.RWMutex
	Runs             int64
	RowsPurged       int64
	Errors           int64
	LastRunTime      time.Time
	LastRunDuration  time.Duration
	totalRunDuration time.Duration
}

// MetricsSummary is the JSON view of the sweeper metrics
type MetricsSummary struct {
	Runs               int64     `json:"runs"`
	RowsPurged         int64     `json:"rows_purged"`
	Errors             int64     `json:"errors"`
	LastRunTime        time.Time `json:"last_run_time"`
	AverageRunDuration string    `json:"average_run_duration"`
	ErrorRate          float64   `json:"error_rate_percentage"`
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{}
}

// RecordRun records a successful pass
func (m *SchedulerMetrics) RecordRun(rows int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.RowsPurged += rows
	m.LastRunTime = time.Now()
	m.LastRunDuration = duration
	m.totalRunDuration += duration
}

func (m *SchedulerMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Errors++
}

// IsHealthy is true while fewer than half of the passes fail.
func (m *SchedulerMetrics) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.errorRate() < 0.5
}

func (m *SchedulerMetrics) GetMetricsSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.Runs > 0 {
		avg = m.totalRunDuration / time.Duration(m.Runs)
	}
	return MetricsSummary{
		Runs:               m.Runs,
		RowsPurged:         m.RowsPurged,
		Errors:             m.Errors,
		LastRunTime:        m.LastRunTime,
		AverageRunDuration: avg.String(),
		ErrorRate:          m.errorRate() * 100,
	}
}

func (m *SchedulerMetrics) errorRate() float64 {
	total := m.Runs + m.Errors
	if total == 0 {
		return 0
	}
	return float64(m.Errors) / float64(total)
}

func (m *SchedulerMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs = 0
	m.RowsPurged = 0
	m.Errors = 0
	m.LastRunTime = time.Time{}
	m.LastRunDuration = 0
	m.totalRunDuration = 0
}
