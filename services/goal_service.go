package services

import (
	"context"
	"fmt"
	"time"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/goal"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type GoalService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGoalService(db *pgxpool.Pool) *GoalService {
	return &GoalService{db: db, logger: zap.L().Named("goals")}
}

const goalColumns = `id, user_id, week_start, title, target, progress, completed, created_at, updated_at`

func scanGoal(row pgx.Row) (*goal.WeeklyGoal, error) {
	g := &goal.WeeklyGoal{}
	err := row.Scan(&g.ID, &g.UserID, &g.WeekStart, &g.Title, &g.Target, &g.Progress, &g.Completed, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// ParseWeek turns a YYYY-MM-DD string into the Monday of its week. Empty means this week.
func ParseWeek(s string) (time.Time, error) {
	if s == "" {
		return goal.WeekStart(time.Now()), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("week", "week must be a date in YYYY-MM-DD format")
	}
	return goal.WeekStart(t), nil
}

func (s *GoalService) List(ctx context.Context, userID string, week time.Time) ([]*goal.WeeklyGoal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+goalColumns+` FROM weekly_goals WHERE user_id = $1 AND week_start = $2 ORDER BY created_at`,
		userID, week)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []*goal.WeeklyGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *GoalService) Create(ctx context.Context, userID string, req *goal.CreateGoalRequest) (*goal.WeeklyGoal, error) {
	week, err := ParseWeek(req.Week)
	if err != nil {
		return nil, err
	}

	g, err := scanGoal(s.db.QueryRow(ctx, `
		INSERT INTO weekly_goals (user_id, week_start, title, target) VALUES ($1, $2, $3, $4)
		RETURNING `+goalColumns, userID, week, req.Title, req.Target))
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	s.logger.Info("goal created", zap.String("user_id", userID), zap.String("goal_id", g.ID))
	return g, nil
}

func (s *GoalService) owned(ctx context.Context, userID, goalID string) (*goal.WeeklyGoal, error) {
	if !validUUID(goalID) {
		return nil, apperror.NotFound("goal", goalID)
	}
	g, err := scanGoal(s.db.QueryRow(ctx, `SELECT `+goalColumns+` FROM weekly_goals WHERE id = $1`, goalID))
	if err != nil {
		return nil, notFoundOr(err, "goal", goalID)
	}
	if g.UserID != userID {
		return nil, apperror.Forbidden("this goal belongs to another user")
	}
	return g, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, req *goal.UpdateGoalRequest) (*goal.WeeklyGoal, error) {
	g, err := s.owned(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	g.Apply(req)

	updated, err := scanGoal(s.db.QueryRow(ctx, `
		UPDATE weekly_goals SET title = $2, target = $3, progress = $4, completed = $5, updated_at = NOW()
		WHERE id = $1 RETURNING `+goalColumns,
		g.ID, g.Title, g.Target, g.Progress, g.Completed))
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	if _, err := s.owned(ctx, userID, goalID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM weekly_goals WHERE id = $1`, goalID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
