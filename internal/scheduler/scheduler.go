package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/swissweather/meteoswiss/internal/services"
	"go.uber.org/zap"
)

// Scheduler refreshes the weather snapshot on a fixed interval.
type Scheduler struct {
	snapshot *services.Snapshot
	logger   *zap.Logger
	interval time.Duration
	cron     *cron.Cron
}

func NewScheduler(snapshot *services.Snapshot, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		snapshot: snapshot,
		logger:   logger,
		interval: interval,
		cron:     cron.New(),
	}
}

func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))

	// Run immediately on start
	go s.refresh()
	return nil
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := s.snapshot.Refresh(ctx); err != nil {
		s.logger.Error("Scheduled refresh failed", zap.Error(err))
	}
}
