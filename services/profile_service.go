package services

import (
	"context"
	"errors"
	"fmt"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/events"
	"campusRankAPI/internal/scraper"
	"campusRankAPI/internal/types/platform"
	"campusRankAPI/internal/types/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProfileService struct {
	db          *pgxpool.Pool
	users       *UserService
	fetcher     ProfileFetcher
	leaderboard *LeaderboardService
	errorLogs   *ErrorLogService
	events      events.Publisher
	logger      *zap.Logger
}

func NewProfileService(db *pgxpool.Pool, users *UserService, fetcher ProfileFetcher, lb *LeaderboardService, errorLogs *ErrorLogService) *ProfileService {
	return &ProfileService{
		db:          db,
		users:       users,
		fetcher:     fetcher,
		leaderboard: lb,
		errorLogs:   errorLogs,
		events:      events.Nop{},
		logger:      zap.L().Named("profiles"),
	}
}

func (s *ProfileService) SetPublisher(p events.Publisher) { s.events = p }

// FetchProfile scrapes the caller's linked platforms right now and re-scores them.
// Ranks are left for the next full refresh.
func (s *ProfileService) FetchProfile(ctx context.Context, userID string) (*user.FetchProfileResponse, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	handles := u.Handles()
	if handles.Empty() {
		return nil, apperror.ValidationFailed("leetcodeUsername", "link at least one platform username first")
	}

	snap := s.fetcher.FetchAll(ctx, handles)
	if err := saveSnapshot(ctx, s.db, userID, snap); err != nil {
		return nil, err
	}

	resp := &user.FetchProfileResponse{}
	if len(snap.Errors) > 0 {
		resp.Errors = make(map[platform.Name]string, len(snap.Errors))
		for name, ferr := range snap.Errors {
			resp.Errors[name] = describeFetchError(name, ferr)
			s.errorLogs.RecordAsync("/api/fetch-profile", "POST",
				fmt.Sprintf("%s fetch failed for %s", name, u.Username), ferr.Error(), &userID)
		}
	}

	if resp.LeetCode, err = getLeetCodeProfile(ctx, s.db, userID); err != nil {
		return nil, err
	}
	if resp.HackerRank, err = getHackerRankProfile(ctx, s.db, userID); err != nil {
		return nil, err
	}
	if resp.GFG, err = getGFGProfile(ctx, s.db, userID); err != nil {
		return nil, err
	}

	if resp.Stats, err = s.leaderboard.RecomputeUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, events.New(events.ProfileFetched, userID, map[string]any{
		"username": u.Username,
		"failed":   len(snap.Errors),
	})); err != nil {
		s.logger.Warn("failed to publish profile event", zap.Error(err))
	}

	s.logger.Info("profile fetched",
		zap.String("user_id", userID),
		zap.Int("failed_platforms", len(snap.Errors)),
	)
	return resp, nil
}

func describeFetchError(name platform.Name, err error) string {
	if errors.Is(err, scraper.ErrProfileNotFound) {
		return fmt.Sprintf("%s profile not found", name)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s took too long to respond", name)
	}
	return fmt.Sprintf("could not fetch %s profile", name)
}
