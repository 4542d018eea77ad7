package goal

import "time"

type WeeklyGoal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	WeekStart time.Time `json:"weekStart"`
	Title     string    `json:"title"`
	Target    int       `json:"target"`
	Progress  int       `json:"progress"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateGoalRequest struct {
	Title  string `json:"title" validate:"required,min=2,max=200"`
	Target int    `json:"target" validate:"gte=1,lte=1000"`
	Week   string `json:"week" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateGoalRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Target    *int    `json:"target,omitempty" validate:"omitempty,gte=1,lte=1000"`
	Progress  *int    `json:"progress,omitempty" validate:"omitempty,gte=0"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply merges req into g. Reaching the target always marks the goal complete.
func (g *WeeklyGoal) Apply(req *UpdateGoalRequest) {
	if req.Title != nil {
		g.Title = *req.Title
	}
	if req.Target != nil {
		g.Target = *req.Target
	}
	if req.Progress != nil {
		g.Progress = *req.Progress
	}
	if req.Completed != nil {
		g.Completed = *req.Completed
	}
	if g.Target > 0 && g.Progress >= g.Target {
		g.Completed = true
	}
}

// WeekStart returns the Monday (UTC midnight) of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}
