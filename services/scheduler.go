package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusRankAPI/internal/apperror"

	"go.uber.org/zap"
)

type refresher interface {
	Refresh(ctx context.Context) error
	RecordHistory(ctx context.Context) error
}

// Scheduler refreshes the leaderboard on an interval and records the daily
// history snapshot after each refresh.
type Scheduler struct {
	jobs     refresher
	interval time.Duration
	timeout  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

func NewScheduler(lb *LeaderboardService, interval time.Duration) *Scheduler {
	return newScheduler(leaderboardJobs{lb}, interval)
}

func newScheduler(jobs refresher, interval time.Duration) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		interval: interval,
		timeout:  10 * time.Minute,
		stopChan: make(chan struct{}),
		logger:   zap.L().Named("scheduler"),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// abandon the run if Stop is called mid-refresh
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := s.jobs.Refresh(ctx); err != nil {
		if errors.Is(err, apperror.ErrBusy) {
			s.logger.Info("refresh already running, skipping tick")
			return
		}
		s.logger.Error("scheduled refresh failed", zap.Error(err))
		return
	}
	if err := s.jobs.RecordHistory(ctx); err != nil {
		s.logger.Error("scheduled history snapshot failed", zap.Error(err))
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

type leaderboardJobs struct {
	lb *LeaderboardService
}

func (j leaderboardJobs) Refresh(ctx context.Context) error {
	_, err := j.lb.Refresh(ctx)
	return err
}

func (j leaderboardJobs) RecordHistory(ctx context.Context) error {
	_, err := j.lb.RecordHistory(ctx)
	return err
}
