package sync

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"solum-sync-service/internal/config"
	"solum-sync-service/internal/logger"
)

// Scheduler drives periodic auto-sync. Overlap is handled by the manager's
// single-flight guard: a tick that lands while a sync is running is skipped.
type Scheduler struct {
	cfg     config.SchedulerConfig
	manager *Manager
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewScheduler(cfg config.SchedulerConfig, manager *Manager) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		manager: manager,
		cron:    cron.New(),
	}
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		logger.Log.Info("Scheduler is disabled")
		return
	}

	logger.Log.Info("Starting scheduler", zap.String("interval", s.cfg.Interval))

	id, err := s.cron.AddFunc(s.cfg.Interval, func() {
		s.manager.AutoSync(context.Background())
	})
	if err != nil {
		logger.Log.Error("Failed to schedule auto-sync", zap.Error(err))
		return
	}

	s.entryID = id
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	logger.Log.Info("Stopped scheduler")
}
