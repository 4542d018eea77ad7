package services

import (
	"context"
	"fmt"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/types/admin"
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AdminService struct {
	db          *pgxpool.Pool
	users       *UserService
	leaderboard *LeaderboardService
	logger      *zap.Logger
}

func NewAdminService(db *pgxpool.Pool, users *UserService, lb *LeaderboardService) *AdminService {
	return &AdminService{db: db, users: users, leaderboard: lb, logger: zap.L().Named("admin")}
}

func (s *AdminService) Stats(ctx context.Context) (*admin.Stats, error) {
	st := &admin.Stats{}
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE leetcode_username IS NOT NULL),
			(SELECT COUNT(*) FROM users WHERE hackerrank_username IS NOT NULL),
			(SELECT COUNT(*) FROM users WHERE gfg_username IS NOT NULL),
			(SELECT COUNT(*) FROM leaderboard_stats WHERE global_rank IS NOT NULL),
			(SELECT COUNT(*) FROM reports WHERE status = 'open'),
			(SELECT COUNT(*) FROM blog_posts WHERE published),
			(SELECT COUNT(*) FROM error_logs),
			(SELECT COUNT(*) FROM push_subscriptions)`,
	).Scan(&st.TotalUsers, &st.LinkedProfiles.LeetCode, &st.LinkedProfiles.HackerRank, &st.LinkedProfiles.GFG,
		&st.RankedUsers, &st.OpenReports, &st.PublishedBlogs, &st.ErrorLogs, &st.PushSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin stats: %w", err)
	}

	if st.LastRefresh, err = s.leaderboard.LastRun(ctx); err != nil {
		return nil, err
	}
	st.RefreshRunning = s.leaderboard.Running()

	top, err := s.leaderboard.GetLeaderboard(ctx, leaderboard.Query{Page: 1, PageSize: 10})
	if err != nil {
		return nil, err
	}
	st.TopUsers = top.Entries
	return st, nil
}

func (s *AdminService) ListUsers(ctx context.Context, search string, page, pageSize int) (*admin.UserList, error) {
	page, pageSize = clampPage(page, pageSize, 20, 100)
	users, total, err := s.users.ListUsers(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &admin.UserList{Users: users, Total: total, Page: page, PageSize: pageSize}, nil
}

// DeleteUser removes another account. Admins cannot delete themselves here.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperror.ValidationFailed("id", "use account settings to delete your own account")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted by admin", zap.String("admin_id", actorID), zap.String("user_id", userID))
	return nil
}

// UpdateRole promotes or demotes another account. Self-demotion is refused so
// the last admin cannot lock themselves out.
func (s *AdminService) UpdateRole(ctx context.Context, actorID, userID string, role user.Role) (*user.User, error) {
	if actorID == userID {
		return nil, apperror.ValidationFailed("role", "you cannot change your own role")
	}
	u, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("role changed", zap.String("admin_id", actorID), zap.String("user_id", userID), zap.String("role", string(role)))
	return u, nil
}
