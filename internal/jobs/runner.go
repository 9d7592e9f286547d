package jobs

import (
	"renthub-backend/internal/config"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository/postgres"
	"renthub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	store    *postgres.Store
	services *Services
	config   *config.Config
}

// Services holds the service dependencies jobs need.
type Services struct {
	Email   service.EmailService
	Loyalty service.LoyaltyService
}

func NewJobRunner(store *postgres.Store, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		config:   cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs every job once, for manual execution.
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.ExpireLoyaltyPoints()
	jr.SendReturnReminders()
}
