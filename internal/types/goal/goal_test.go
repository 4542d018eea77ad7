package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-10-19T10:00:00Z", "2026-10-19"}, // Monday
		{"2026-10-25T23:59:00Z", "2026-10-19"}, // Sunday
		{"2026-10-21T00:00:00Z", "2026-10-19"},
		{"2026-11-01T08:00:00Z", "2026-10-26"},
	}

	for _, tt := range tests {
		in, _ := time.Parse(time.RFC3339, tt.in)
		assert.Equal(t, tt.want, WeekStart(in).Format("2006-01-02"), tt.in)
	}
}

func TestApply_ReachingTargetCompletes(t *testing.T) {
	g := &WeeklyGoal{Title: "Solve DP problems", Target: 5, Progress: 3}
	progress := 5

	g.Apply(&UpdateGoalRequest{Progress: &progress})

	assert.True(t, g.Completed)
	assert.Equal(t, 5, g.Progress)
}

func TestApply_ManualCompletionKept(t *testing.T) {
	g := &WeeklyGoal{Target: 10, Progress: 1}
	done := true

	g.Apply(&UpdateGoalRequest{Completed: &done})

	assert.True(t, g.Completed)
}

func TestApply_CannotUncompleteWhenTargetMet(t *testing.T) {
	g := &WeeklyGoal{Target: 2, Progress: 2, Completed: true}
	notDone := false

	g.Apply(&UpdateGoalRequest{Completed: &notDone})

	assert.True(t, g.Completed)
}
