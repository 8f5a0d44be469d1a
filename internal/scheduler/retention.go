package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/repositories"
)

// RetentionJob удаляет терминальные заявки старше порога вместе с их
// распределениями. Работает независимо от цикла распределения.
type RetentionJob struct {
	cron        *cron.Cron
	requestRepo repositories.RequestRepository
	spec        string
	maxAge      time.Duration
	now         func() time.Time
}

func NewRetentionJob(requestRepo repositories.RequestRepository, spec string, maxAge time.Duration) *RetentionJob {
	return &RetentionJob{
		cron:        cron.New(),
		requestRepo: requestRepo,
		spec:        spec,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

func (j *RetentionJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.RunOnce); err != nil {
		return err
	}
	j.cron.Start()
	logger.Info("retention job started", "spec", j.spec, "max_age", j.maxAge.String())
	return nil
}

func (j *RetentionJob) Stop() {
	j.cron.Stop()
	logger.Info("retention job stopped")
}

// RunOnce выполняет одну прогонку очистки.
func (j *RetentionJob) RunOnce() {
	cutoff := j.now().Add(-j.maxAge)
	deleted, err := j.requestRepo.DeleteOlderThan(cutoff)
	if err != nil {
		logger.WithError(err).Error("retention prune failed")
		return
	}
	if deleted > 0 {
		logger.Info("retention prune finished", "deleted_requests", deleted, "cutoff", cutoff)
	}
}
