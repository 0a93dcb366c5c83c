// File: internal/jobs/search_reindex.go
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/search"
)

const reindexTimeout = 5 * time.Minute

// SearchReindexJob periodically rebuilds the donation search index from the
// database, repairing any drift left by missed events.
type SearchReindexJob struct {
	index         *search.Index
	donations     search.DonationLoader
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewSearchReindexJob creates a new SearchReindexJob.
func NewSearchReindexJob(
	index *search.Index,
	donations search.DonationLoader,
	logger *zap.Logger,
	cfg *config.Config,
) *SearchReindexJob {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &SearchReindexJob{
		index:         index,
		donations:     donations,
		logger:        logger.Named("search_reindex_job"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job. Without a schedule or a
// search backend the job stays idle.
func (j *SearchReindexJob) SetupAndStart() error {
	jobSpec := j.cfg.SearchReindexJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Search reindex schedule not defined (SEARCH_REINDEX_JOB_SCHEDULE). Job will not run.")
		return nil
	}
	if j.index == nil {
		j.logger.Info("Search is not configured. Reindex job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule search reindex job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Search reindex job scheduled", zap.String("spec", jobSpec), zap.Int("jobID", int(jobID)))
	j.cronScheduler.Start()
	return nil
}

func (j *SearchReindexJob) runJob() {
	j.logger.Info("Starting search reindex run")
	ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
	defer cancel()

	start := time.Now()
	if err := search.Reindex(ctx, j.index, j.donations, j.logger); err != nil {
		j.logger.Error("Search reindex run failed", zap.Error(err))
		return
	}
	j.logger.Info("Search reindex run completed", zap.Duration("took", time.Since(start)))
}

// Stop gracefully stops the cron scheduler, waiting up to ten seconds for a
// running job.
func (j *SearchReindexJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping search reindex scheduler")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Search reindex scheduler stopped")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Search reindex scheduler stop timed out")
	}
}
