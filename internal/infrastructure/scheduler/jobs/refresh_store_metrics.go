package jobs

import (
	"context"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

// StoreObserver is implemented by *metrics.Collector.
type StoreObserver interface {
	ObserveStore(repo interaction.Repository)
}

// RefreshStoreMetricsJobName is the scheduler name of RefreshStoreMetricsJob.
const RefreshStoreMetricsJobName = "refresh_store_metrics"

// RefreshStoreMetricsJob copies the store status counts and counters into
// the metrics gauges.
type RefreshStoreMetricsJob struct {
	repo     interaction.Repository
	observer StoreObserver
}

// NewRefreshStoreMetricsJob creates the job.
func NewRefreshStoreMetricsJob(repo interaction.Repository, observer StoreObserver) *RefreshStoreMetricsJob {
	return &RefreshStoreMetricsJob{repo: repo, observer: observer}
}

// Name returns the job name.
func (j *RefreshStoreMetricsJob) Name() string {
	return RefreshStoreMetricsJobName
}

// Description returns a human-readable description.
func (j *RefreshStoreMetricsJob) Description() string {
	return "Refreshes the record and counter gauges from the store"
}

// Run executes the job.
func (j *RefreshStoreMetricsJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.observer.ObserveStore(j.repo)
	return nil
}
