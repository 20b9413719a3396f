// Package scheduler runs the ingestion pipeline on a cron cadence for
// daemon mode.
package scheduler

import (
	"fmt"
	"log"
	"sync/atomic"

	"MarketIngest/internal/pipeline"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the recurring update job.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	running  atomic.Bool
}

// NewScheduler creates a Scheduler around a pipeline.
func NewScheduler(p *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		pipeline: p,
	}
}

// Register installs the update job on the given cron expression.
func (s *Scheduler) Register(updateCron string) error {
	if _, err := s.cron.AddFunc(updateCron, s.updateTask); err != nil {
		return fmt.Errorf("register update task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the update task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.updateTask()
}

// updateTask runs one full ingestion cycle. A cycle still in flight
// when the next tick fires wins; the tick is skipped.
func (s *Scheduler) updateTask() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("[WARN] update already in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	log.Println("[INFO] running scheduled update")
	stats, err := s.pipeline.Run()
	if err != nil {
		log.Printf("[ERROR] scheduled update: %v", err)
		return
	}
	if stats.Errors > 0 {
		log.Printf("[WARN] scheduled update finished with %d errors", stats.Errors)
	}
}
