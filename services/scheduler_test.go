package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"campusRankAPI/internal/apperror"

	"github.com/stretchr/testify/assert"
)

type countingJobs struct {
	refreshes atomic.Int32
	histories atomic.Int32
	busy      bool
}

func (c *countingJobs) Refresh(context.Context) error {
	c.refreshes.Add(1)
	if c.busy {
		return apperror.Busy("running")
	}
	return nil
}

func (c *countingJobs) RecordHistory(context.Context) error {
	c.histories.Add(1)
	return nil
}

func TestScheduler_RunsRefreshThenHistory(t *testing.T) {
	jobs := &countingJobs{}
	s := newScheduler(jobs, 10*time.Millisecond)
	s.Start()

	assert.Eventually(t, func() bool { return jobs.histories.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	assert.GreaterOrEqual(t, jobs.refreshes.Load(), jobs.histories.Load())
}

func TestScheduler_SkipsHistoryWhenBusy(t *testing.T) {
	jobs := &countingJobs{busy: true}
	s := newScheduler(jobs, 10*time.Millisecond)
	s.Start()

	assert.Eventually(t, func() bool { return jobs.refreshes.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), jobs.histories.Load())
}
