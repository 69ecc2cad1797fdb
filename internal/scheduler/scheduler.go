package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-search-service/internal/logger"
	"github.com/i474232898/weather-search-service/internal/weather"
)

// refreshTimeout bounds one full refresh sweep, including all provider calls.
const refreshTimeout = 5 * time.Minute

// Scheduler periodically refreshes stored records whose date range still
// reaches into the forecast window, so persisted summaries track the
// provider's latest forecast.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	interval  time.Duration
	log       logger.Logger
}

// New creates a Scheduler. A non-positive interval disables it.
func New(interval time.Duration, service *weather.Service, log logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("forecast refresh disabled; no interval configured")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.log.Info("running forecast refresh job")

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.service.RefreshActiveForecasts(ctx); err != nil {
			s.log.Error("forecast refresh job failed", "error", err)
			return
		}
		s.log.Info("completed forecast refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
