package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	liveSvc  *LivePositionService
	scanSpec string
	logger   *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(liveSvc *LivePositionService, scanSpec string, logger *logrus.Logger) *CronService {
	// Seconds precision: the simulator scan runs sub-minute
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:     c,
		liveSvc:  liveSvc,
		scanSpec: scanSpec,
		logger:   logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	_, err := s.cron.AddFunc(s.scanSpec, s.simulatorScanJob)
	if err != nil {
		return fmt.Errorf("failed to schedule simulator scan job: %w", err)
	}
	s.logger.WithField("spec", s.scanSpec).Info("Scheduled: live-position simulator scan")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// simulatorScanJob starts simulations for trains that began running since
// the previous scan
func (s *CronService) simulatorScanJob() {
	start := time.Now()
	s.liveSvc.Scan()
	s.logger.WithFields(logrus.Fields{
		"active":   s.liveSvc.ActiveCount(),
		"duration": time.Since(start).String(),
	}).Debug("Simulator scan completed")
}

// RunScanNow triggers the simulator scan immediately
func (s *CronService) RunScanNow() {
	s.logger.Info("Manual simulator scan triggered")
	s.simulatorScanJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":            len(entries) > 0,
		"job_count":          len(entries),
		"jobs":               jobs,
		"active_simulations": s.liveSvc.ActiveCount(),
	}
}
