package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inboxx/inboxx/internal/metrics"
)

// runTimeout bounds a single scheduled sweep.
const runTimeout = 30 * time.Minute

// Scheduler runs retention sweeps on a fixed interval.
type Scheduler struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger

	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	lastRun    time.Time
	lastResult *Result
}

// NewScheduler creates a scheduler that sweeps every interval.
func NewScheduler(service *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cleanup scheduler is already running")
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)

	go s.loop()

	s.logger.Info("Cleanup scheduler started", "interval", s.interval)
	return nil
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Cleanup scheduler stopped")
}

// IsRunning reports whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastResult returns the outcome of the most recent sweep, if any.
func (s *Scheduler) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// LastRunTime returns when the most recent sweep started.
func (s *Scheduler) LastRunTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.service.Run(ctx)

	s.mu.Lock()
	s.lastRun = started
	s.lastResult = result
	s.mu.Unlock()

	if err != nil {
		metrics.CleanupRunsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Scheduled cleanup failed", "error", err)
		return
	}

	metrics.CleanupRunsTotal.WithLabelValues("success").Inc()
}
