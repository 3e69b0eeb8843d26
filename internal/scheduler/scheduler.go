// Package scheduler runs the periodic batch jobs in-process: the overdue
// sweep, the restoration sweep and billing-day invoice generation.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/config"
	"github.com/adiwena/netbilling/internal/domain"
	cronhandler "github.com/adiwena/netbilling/internal/handlers/cron"
)

// Scheduler manages the cron jobs
type Scheduler struct {
	cron      *cron.Cron
	sweeper   cronhandler.Sweeper
	generator cronhandler.Generator
	logger    *zap.Logger
	config    config.CronConfig
}

// NewScheduler creates a scheduler over the batch services
func NewScheduler(sweeper cronhandler.Sweeper, generator cronhandler.Generator, logger *zap.Logger, cfg config.CronConfig) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &Scheduler{
		cron:      c,
		sweeper:   sweeper,
		generator: generator,
		logger:    logger,
		config:    cfg,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() {
	s.add("overdue sweep", s.config.OverdueSchedule, s.runOverdueSweep)
	s.add("restoration sweep", s.config.RestorationSchedule, s.runRestorationSweep)
	s.add("invoice generation", s.config.InvoiceSchedule, s.runInvoiceGeneration)
	s.cron.Start()
}

// Stop gracefully stops the scheduler; the returned context is done when
// running jobs have finished
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) add(name, schedule string, job func()) {
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		s.logger.Error("failed to schedule job",
			zap.String("job", name),
			zap.String("schedule", schedule),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("scheduled job",
		zap.String("job", name),
		zap.String("schedule", schedule),
	)
}

func (s *Scheduler) runOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.sweeper.RunOverdueSweep(ctx); err != nil {
		if errors.Is(err, domain.ErrSweepAlreadyRunning) {
			// Already logged by the sweeper; nothing to do here.
			return
		}
		s.logger.Error("scheduled overdue sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runRestorationSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.sweeper.RunRestorationSweep(ctx); err != nil {
		s.logger.Error("scheduled restoration sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runInvoiceGeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.generator.GenerateForBillingDay(ctx, time.Now()); err != nil {
		s.logger.Error("scheduled invoice generation failed", zap.Error(err))
	}
}
