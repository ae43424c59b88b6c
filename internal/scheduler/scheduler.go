// Package scheduler runs a background job on a fixed interval. The
// server uses it to re-import the corpus manifest so uploads made
// while the server is running show up without a restart.
package scheduler

import (
	"context"
	"sync"
	"time"

	"marginalia/backend/pkg/logger"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

type Scheduler struct {
	name     string
	job      Job
	interval time.Duration

	stopCh     chan struct{}
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the in-flight run
	mu         sync.Mutex         // protects cancelFunc
}

func New(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "job", s.name, "interval", s.interval)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped", "job", s.name)
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start.
	s.runJob()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runJob()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runJob() {
	// The interval doubles as the per-run timeout.
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	if err := s.job(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("scheduled job cancelled", "job", s.name)
			return
		}
		logger.Error("scheduled job failed", "job", s.name, "error", err)
	}
}
