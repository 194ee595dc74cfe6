package jobs

import (
	"fmt"
	"sort"
	"time"

	"equipment-rental-backend/internal/config"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/metrics"
	"equipment-rental-backend/internal/repository"
	"equipment-rental-backend/internal/service"
)

const (
	JobLowStockReport        = "low-stock-report"
	JobOverdueBookingsReport = "overdue-bookings-report"
	JobStockInvariantCheck   = "stock-invariant-check"
)

// JobRunner coordinates all scheduled stock health jobs. Jobs only read
// stock state; findings go to the log and the activity trail.
type JobRunner struct {
	repos    repository.Repositories
	activity service.ActivityLogger
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos repository.Repositories, activity service.ActivityLogger, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:    repos,
		activity: activity,
		config:   cfg,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Run executes one job by name, for manual runs.
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobLowStockReport:
		jr.LowStockReport()
	case JobOverdueBookingsReport:
		jr.OverdueBookingsReport()
	case JobStockInvariantCheck:
		jr.StockInvariantCheck()
	default:
		return fmt.Errorf("unknown job %q (known: %s, %s, %s)", name,
			JobLowStockReport, JobOverdueBookingsReport, JobStockInvariantCheck)
	}
	return nil
}

// RunAll runs every job once.
func (jr *JobRunner) RunAll() {
	jr.LowStockReport()
	jr.OverdueBookingsReport()
	jr.StockInvariantCheck()
}

// runWithRecovery wraps job execution with panic recovery and outcome metrics
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) {
	log := logger.WithService("jobs").With("job", jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			metrics.JobRuns.WithLabelValues(jobName, "panic").Inc()
		}
	}()

	log.Info("Starting job")
	if err := jobFunc(); err != nil {
		log.Error("Job failed", "error", err)
		metrics.JobRuns.WithLabelValues(jobName, "failure").Inc()
		return
	}
	metrics.JobRuns.WithLabelValues(jobName, "success").Inc()
	log.Info("Job completed")
}

func sortedTenants[T any](byTenant map[int32][]T) []int32 {
	ids := make([]int32, 0, len(byTenant))
	for id := range byTenant {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
