package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"efactura/internal/config"
)

// SyncRunner is the sync surface the scheduler drives.
type SyncRunner interface {
	SyncAll(ctx context.Context)
	ReparseIncomplete(ctx context.Context) (int, error)
}

// Scheduler runs the periodic jobs: a sync-all pass over the auto-sync
// companies and a daily-by-default reparse of incomplete records. Everything a
// job needs is carried explicitly through the service, no ambient globals.
type Scheduler struct {
	sync SyncRunner
	cfg  config.SyncConfig
	log  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(syncSvc SyncRunner, cfg config.SyncConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{sync: syncSvc, cfg: cfg, log: log}
}

// Start launches the job loops. Each tick runs in the scheduler's own
// goroutine; company-level concurrency lives inside SyncAll.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, "sync", time.Duration(s.cfg.IntervalMinutes)*time.Minute, func(ctx context.Context) {
		s.sync.SyncAll(ctx)
	})
	go s.loop(ctx, "reparse", time.Duration(s.cfg.ReparseIntervalMin)*time.Minute, func(ctx context.Context) {
		if _, err := s.sync.ReparseIncomplete(ctx); err != nil {
			s.log.Error("reparse job failed", zap.Error(err))
		}
	})
}

// Stop cancels the job context and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, job func(context.Context)) {
	defer s.wg.Done()
	if interval <= 0 {
		s.log.Warn("job disabled by non-positive interval", zap.String("job", name))
		return
	}

	s.log.Info("job scheduled", zap.String("job", name), zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := time.Now()
			job(ctx)
			s.log.Info("job finished",
				zap.String("job", name),
				zap.Duration("took", time.Since(started)))
		}
	}
}
