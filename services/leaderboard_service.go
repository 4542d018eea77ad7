package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/cache"
	"campusRankAPI/internal/events"
	"campusRankAPI/internal/notification"
	"campusRankAPI/internal/scoring"
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/platform"
	"campusRankAPI/internal/types/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "leaderboard_refresh_duration_seconds",
	Help:    "Wall time of a full leaderboard refresh",
	Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
})

// Collectors returns the metrics owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{refreshDuration}
}

type ProfileFetcher interface {
	FetchAll(ctx context.Context, h user.Handles) *platform.Snapshot
}

type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

type RankNotifier interface {
	NotifyRankChanges(ctx context.Context, changes []leaderboard.RankChange)
}

type LeaderboardService struct {
	db          *pgxpool.Pool
	users       *UserService
	fetcher     ProfileFetcher
	weights     scoring.Weights
	concurrency int
	appURL      string

	cache       cache.Cache
	events      events.Publisher
	broadcaster Broadcaster
	notifier    RankNotifier
	mailer      notification.Mailer
	errorLogs   *ErrorLogService

	running atomic.Bool
	logger  *zap.Logger
}

func NewLeaderboardService(db *pgxpool.Pool, users *UserService, fetcher ProfileFetcher, weights scoring.Weights, concurrency int, appURL string) *LeaderboardService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &LeaderboardService{
		db:          db,
		users:       users,
		fetcher:     fetcher,
		weights:     weights,
		concurrency: concurrency,
		appURL:      appURL,
		cache:       cache.Nop{},
		events:      events.Nop{},
		logger:      zap.L().Named("leaderboard"),
	}
}

func (s *LeaderboardService) SetCache(c cache.Cache)          { s.cache = c }
func (s *LeaderboardService) SetPublisher(p events.Publisher) { s.events = p }
func (s *LeaderboardService) SetBroadcaster(b Broadcaster)    { s.broadcaster = b }
func (s *LeaderboardService) SetNotifier(n RankNotifier)      { s.notifier = n }
func (s *LeaderboardService) SetMailer(m notification.Mailer) { s.mailer = m }
func (s *LeaderboardService) SetErrorLogs(e *ErrorLogService) { s.errorLogs = e }
func (s *LeaderboardService) Weights() scoring.Weights        { return s.weights }
func (s *LeaderboardService) Running() bool                   { return s.running.Load() }

// Refresh scrapes every linked profile, re-scores everyone and rewrites ranks.
// Only one refresh runs at a time; a second caller gets ErrBusy.
func (s *LeaderboardService) Refresh(ctx context.Context) (*leaderboard.RefreshResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperror.Busy("leaderboard refresh already running")
	}
	defer s.running.Store(false)

	result := &leaderboard.RefreshResult{StartedAt: time.Now().UTC()}
	timer := prometheus.NewTimer(refreshDuration)
	defer timer.ObserveDuration()

	users, err := s.users.UsersWithHandles(ctx)
	if err != nil {
		return nil, err
	}

	var scraped, failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		g.Go(func() error {
			snap := s.fetcher.FetchAll(gctx, u.Handles())
			for name, ferr := range snap.Errors {
				failures.Add(1)
				s.recordFailure(u, name, ferr)
			}
			if err := saveSnapshot(gctx, s.db, u.ID, snap); err != nil {
				s.logger.Error("failed to save snapshot", zap.String("user_id", u.ID), zap.Error(err))
				failures.Add(1)
				return nil
			}
			scraped.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh cancelled: %w", err)
	}

	standings, err := s.rankAll(ctx)
	if err != nil {
		return nil, err
	}
	changes := rankChanges(standings)

	result.FinishedAt = time.Now().UTC()
	result.UsersRanked = len(standings)
	result.Scraped = int(scraped.Load())
	result.Failures = int(failures.Load())
	result.Changes = len(changes)

	if _, err := s.db.Exec(ctx,
		`INSERT INTO leaderboard_runs (started_at, finished_at, users_ranked, failures) VALUES ($1, $2, $3, $4)`,
		result.StartedAt, result.FinishedAt, result.UsersRanked, result.Failures,
	); err != nil {
		s.logger.Warn("failed to record refresh run", zap.Error(err))
	}

	s.afterRefresh(ctx, result, changes)

	s.logger.Info("leaderboard refreshed",
		zap.Int("users", result.UsersRanked),
		zap.Int("scraped", result.Scraped),
		zap.Int("failures", result.Failures),
		zap.Int("rank_changes", result.Changes),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (s *LeaderboardService) recordFailure(u *user.User, name platform.Name, err error) {
	if s.errorLogs == nil {
		return
	}
	userID := u.ID
	s.errorLogs.RecordAsync("leaderboard-refresh", "SCRAPE",
		fmt.Sprintf("%s fetch failed for %s", name, u.Username), err.Error(), &userID)
}

func (s *LeaderboardService) afterRefresh(ctx context.Context, result *leaderboard.RefreshResult, changes []leaderboard.RankChange) {
	if err := s.cache.DeletePrefix(ctx, cache.LeaderboardPrefix); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("leaderboard_updated", result)
	}

	evts := []events.Event{events.New(events.LeaderboardRefreshed, "refresh", result)}
	for _, c := range changes {
		evts = append(evts, events.New(events.RankChanged, c.UserID, c))
	}
	if err := s.events.Publish(ctx, evts...); err != nil {
		s.logger.Warn("failed to publish leaderboard events", zap.Error(err))
	}

	if s.notifier != nil && len(changes) > 0 {
		s.notifier.NotifyRankChanges(ctx, changes)
	}
}

type standingInput struct {
	UserID     string
	Username   string
	LeetCode   *platform.LeetCodeProfile
	HackerRank *platform.HackerRankProfile
	GFG        *platform.GFGProfile
	OldRank    int
}

type standing struct {
	UserID    string
	Username  string
	Breakdown scoring.Breakdown
	Rank      int
	OldRank   int
}

// computeStandings scores and ranks everyone. Output is in rank order.
func computeStandings(in []standingInput, w scoring.Weights) []*standing {
	byID := make(map[string]*standing, len(in))
	rows := make([]*scoring.Ranked, 0, len(in))
	for _, r := range in {
		b := scoring.Score(w, r.LeetCode, r.HackerRank, r.GFG)
		byID[r.UserID] = &standing{UserID: r.UserID, Username: r.Username, Breakdown: b, OldRank: r.OldRank}
		rows = append(rows, &scoring.Ranked{UserID: r.UserID, Overall: b.Overall, TotalSolved: b.TotalSolved})
	}

	scoring.Rank(rows)

	out := make([]*standing, 0, len(rows))
	for _, r := range rows {
		st := byID[r.UserID]
		st.Rank = r.Rank
		out = append(out, st)
	}
	return out
}

// rankChanges lists users who held a rank before and now hold a different one.
func rankChanges(standings []*standing) []leaderboard.RankChange {
	var out []leaderboard.RankChange
	for _, st := range standings {
		if st.OldRank == 0 || st.OldRank == st.Rank {
			continue
		}
		out = append(out, leaderboard.RankChange{
			UserID:       st.UserID,
			Username:     st.Username,
			PreviousRank: st.OldRank,
			NewRank:      st.Rank,
			OverallScore: st.Breakdown.Overall,
		})
	}
	return out
}

// profile rows only count while the handle they were fetched for is still linked;
// an unlinked (NULL) handle compares to NULL, hence the COALESCE
const standingsQuery = `
SELECT u.id, u.username,
	COALESCE(lc.user_id IS NOT NULL AND LOWER(lc.username) = LOWER(u.leetcode_username), false),
	COALESCE(lc.easy_solved, 0), COALESCE(lc.medium_solved, 0), COALESCE(lc.hard_solved, 0), COALESCE(lc.total_solved, 0),
	COALESCE(hr.user_id IS NOT NULL AND LOWER(hr.username) = LOWER(u.hackerrank_username), false),
	COALESCE(hr.solved, 0), COALESCE(hr.total_stars, 0),
	COALESCE(g.user_id IS NOT NULL AND LOWER(g.username) = LOWER(u.gfg_username), false),
	COALESCE(g.school_solved, 0), COALESCE(g.basic_solved, 0), COALESCE(g.easy_solved, 0),
	COALESCE(g.medium_solved, 0), COALESCE(g.hard_solved, 0), COALESCE(g.total_solved, 0),
	COALESCE(ls.global_rank, 0)
FROM users u
LEFT JOIN leetcode_profiles lc ON lc.user_id = u.id
LEFT JOIN hackerrank_profiles hr ON hr.user_id = u.id
LEFT JOIN gfg_profiles g ON g.user_id = u.id
LEFT JOIN leaderboard_stats ls ON ls.user_id = u.id
WHERE (u.leetcode_username IS NOT NULL OR u.hackerrank_username IS NOT NULL OR u.gfg_username IS NOT NULL)`

func (s *LeaderboardService) loadStandingInputs(ctx context.Context, db querier, extraWhere string, args ...any) ([]standingInput, error) {
	rows, err := db.Query(ctx, standingsQuery+extraWhere, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	defer rows.Close()

	var out []standingInput
	for rows.Next() {
		var (
			in                   standingInput
			hasLC, hasHR, hasGFG bool
			lc                   platform.LeetCodeProfile
			hr                   platform.HackerRankProfile
			g                    platform.GFGProfile
		)
		if err := rows.Scan(&in.UserID, &in.Username,
			&hasLC, &lc.EasySolved, &lc.MediumSolved, &lc.HardSolved, &lc.TotalSolved,
			&hasHR, &hr.Solved, &hr.TotalStars,
			&hasGFG, &g.SchoolSolved, &g.BasicSolved, &g.EasySolved, &g.MediumSolved, &g.HardSolved, &g.TotalSolved,
			&in.OldRank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		if hasLC {
			in.LeetCode = &lc
		}
		if hasHR {
			in.HackerRank = &hr
		}
		if hasGFG {
			in.GFG = &g
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// rankAll recomputes scores for every linked user and writes stats and ranks
// in one transaction.
func (s *LeaderboardService) rankAll(ctx context.Context) ([]*standing, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// serialize against a concurrent single-user recompute
	if _, err := tx.Exec(ctx, `LOCK TABLE leaderboard_stats IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("failed to lock leaderboard: %w", err)
	}

	inputs, err := s.loadStandingInputs(ctx, tx, "")
	if err != nil {
		return nil, err
	}
	standings := computeStandings(inputs, s.weights)

	batch := &pgx.Batch{}
	ids := make([]string, 0, len(standings))
	for _, st := range standings {
		ids = append(ids, st.UserID)
		b := st.Breakdown
		batch.Queue(`
			INSERT INTO leaderboard_stats (user_id, leetcode_score, hackerrank_score, gfg_score, overall_score,
				total_solved, global_rank, previous_rank, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				leetcode_score = EXCLUDED.leetcode_score, hackerrank_score = EXCLUDED.hackerrank_score,
				gfg_score = EXCLUDED.gfg_score, overall_score = EXCLUDED.overall_score,
				total_solved = EXCLUDED.total_solved,
				previous_rank = leaderboard_stats.global_rank,
				global_rank = EXCLUDED.global_rank,
				updated_at = NOW()`,
			st.UserID, b.LeetCode, b.HackerRank, b.GFG, b.Overall, b.TotalSolved, st.Rank)
	}
	// unlinked users drop off the board
	batch.Queue(`DELETE FROM leaderboard_stats WHERE NOT (user_id::text = ANY($1))`, ids)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to write ranks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ranks: %w", err)
	}
	return standings, nil
}

// RecomputeUser refreshes one user's scores without touching anyone's rank.
func (s *LeaderboardService) RecomputeUser(ctx context.Context, userID string) (*leaderboard.Stats, error) {
	inputs, err := s.loadStandingInputs(ctx, s.db, " AND u.id = $1", userID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	in := inputs[0]
	b := scoring.Score(s.weights, in.LeetCode, in.HackerRank, in.GFG)

	_, err = s.db.Exec(ctx, `
		INSERT INTO leaderboard_stats (user_id, leetcode_score, hackerrank_score, gfg_score, overall_score, total_solved, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			leetcode_score = EXCLUDED.leetcode_score, hackerrank_score = EXCLUDED.hackerrank_score,
			gfg_score = EXCLUDED.gfg_score, overall_score = EXCLUDED.overall_score,
			total_solved = EXCLUDED.total_solved, updated_at = NOW()`,
		userID, b.LeetCode, b.HackerRank, b.GFG, b.Overall, b.TotalSolved)
	if err != nil {
		return nil, fmt.Errorf("failed to save stats: %w", err)
	}

	if err := s.cache.DeletePrefix(ctx, cache.LeaderboardPrefix); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
	return getStats(ctx, s.db, userID)
}

// RecordHistory snapshots every ranked user for today. Re-running the same day overwrites.
func (s *LeaderboardService) RecordHistory(ctx context.Context) (*leaderboard.HistoryResult, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tag, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard_history (user_id, snapshot_date, global_rank, overall_score)
		SELECT user_id, $1, global_rank, overall_score FROM leaderboard_stats WHERE global_rank IS NOT NULL
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			global_rank = EXCLUDED.global_rank, overall_score = EXCLUDED.overall_score`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}

	s.logger.Info("leaderboard history recorded", zap.Int64("rows", tag.RowsAffected()))
	return &leaderboard.HistoryResult{Date: today, Recorded: int(tag.RowsAffected())}, nil
}

const entryColumns = `u.id, u.username, u.name, u.image_url, u.branch, u.graduation_year,
	ls.leetcode_score, ls.hackerrank_score, ls.gfg_score, ls.overall_score, ls.total_solved,
	ls.global_rank, COALESCE(ls.previous_rank - ls.global_rank, 0)`

func scanEntry(row pgx.Row) (*leaderboard.LeaderboardEntry, error) {
	e := &leaderboard.LeaderboardEntry{}
	err := row.Scan(&e.UserID, &e.Username, &e.Name, &e.ImageURL, &e.Branch, &e.GraduationYear,
		&e.LeetCodeScore, &e.HackerRankScore, &e.GFGScore, &e.OverallScore, &e.TotalSolved,
		&e.Rank, &e.RankChange)
	return e, err
}

func leaderboardCacheKey(q leaderboard.Query) string {
	return cache.LeaderboardPrefix + strings.Join([]string{
		strconv.Itoa(q.Page), strconv.Itoa(q.PageSize),
		strings.ToLower(strings.TrimSpace(q.Search)),
		strings.ToLower(strings.TrimSpace(q.Branch)),
		strconv.Itoa(q.Year),
	}, "|")
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q leaderboard.Query) (*leaderboard.Leaderboard, error) {
	q.Page, q.PageSize = clampPage(q.Page, q.PageSize, 20, 100)

	key := leaderboardCacheKey(q)
	var cached leaderboard.Leaderboard
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("leaderboard cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	conds := []string{"ls.global_rank IS NOT NULL"}
	var args []any
	if q.Search != "" {
		args = append(args, likePattern(q.Search))
		conds = append(conds, fmt.Sprintf("(u.username ILIKE $%d OR u.name ILIKE $%d)", len(args), len(args)))
	}
	if q.Branch != "" {
		args = append(args, strings.TrimSpace(q.Branch))
		conds = append(conds, fmt.Sprintf("LOWER(u.branch) = LOWER($%d)", len(args)))
	}
	if q.Year != 0 {
		args = append(args, q.Year)
		conds = append(conds, fmt.Sprintf("u.graduation_year = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")
	from := ` FROM leaderboard_stats ls JOIN users u ON u.id = ls.user_id`

	lb := &leaderboard.Leaderboard{Entries: []*leaderboard.LeaderboardEntry{}, Page: q.Page, PageSize: q.PageSize}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&lb.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := s.db.Query(ctx,
		`SELECT `+entryColumns+from+where+
			fmt.Sprintf(` ORDER BY ls.global_rank ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if run, err := s.LastRun(ctx); err == nil && run != nil {
		lb.UpdatedAt = &run.FinishedAt
	}

	if err := s.cache.SetJSON(ctx, key, lb, cache.DefaultTTL); err != nil {
		s.logger.Warn("leaderboard cache write failed", zap.Error(err))
	}
	return lb, nil
}

// GetUserPosition returns the caller's entry with two neighbours either side.
func (s *LeaderboardService) GetUserPosition(ctx context.Context, userID string) (*leaderboard.Leaderboard, error) {
	me, err := scanEntry(s.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM leaderboard_stats ls JOIN users u ON u.id = ls.user_id
		 WHERE ls.user_id = $1 AND ls.global_rank IS NOT NULL`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundMsg("you are not on the leaderboard yet")
		}
		return nil, fmt.Errorf("failed to load position: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+entryColumns+` FROM leaderboard_stats ls JOIN users u ON u.id = ls.user_id
		 WHERE ls.global_rank BETWEEN $1 AND $2 ORDER BY ls.global_rank ASC`, me.Rank-2, me.Rank+2)
	if err != nil {
		return nil, fmt.Errorf("failed to load neighbours: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{Entries: []*leaderboard.LeaderboardEntry{}, UserPosition: me}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard_stats WHERE global_rank IS NOT NULL`).Scan(&lb.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}
	lb.PageSize = len(lb.Entries)
	return lb, nil
}

func (s *LeaderboardService) LastRun(ctx context.Context) (*leaderboard.RefreshResult, error) {
	r := &leaderboard.RefreshResult{}
	err := s.db.QueryRow(ctx,
		`SELECT started_at, finished_at, users_ranked, failures FROM leaderboard_runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&r.StartedAt, &r.FinishedAt, &r.UsersRanked, &r.Failures)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	return r, nil
}

type DigestResult struct {
	Sent     int  `json:"sent"`
	Failed   int  `json:"failed"`
	Disabled bool `json:"disabled,omitempty"`
}

// SendDigests emails every opted-in, ranked user their standing.
func (s *LeaderboardService) SendDigests(ctx context.Context) (*DigestResult, error) {
	if s.mailer == nil {
		return &DigestResult{Disabled: true}, nil
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboard_stats WHERE global_rank IS NOT NULL`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT u.email, u.name, u.username, ls.global_rank, COALESCE(ls.previous_rank, 0), ls.overall_score
		FROM leaderboard_stats ls JOIN users u ON u.id = ls.user_id
		WHERE ls.global_rank IS NOT NULL AND u.email_notifications
		ORDER BY ls.global_rank`)
	if err != nil {
		return nil, fmt.Errorf("failed to load digest recipients: %w", err)
	}

	type recipient struct {
		email  string
		digest notification.RankDigest
	}
	var recipients []recipient
	for rows.Next() {
		var r recipient
		var username string
		if err := rows.Scan(&r.email, &r.digest.Name, &username, &r.digest.Rank, &r.digest.PreviousRank, &r.digest.Score); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		if r.digest.Name == "" {
			r.digest.Name = username
		}
		r.digest.TotalUsers = total
		r.digest.ProfileURL = s.appURL + "/u/" + username
		r.digest.LeaderURL = s.appURL + "/leaderboard"
		recipients = append(recipients, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := &DigestResult{}
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		html, err := notification.RenderDigest(r.digest)
		if err == nil {
			err = s.mailer.Send(ctx, r.email, fmt.Sprintf("You're #%d on Campus Rank", r.digest.Rank), html)
		}
		if err != nil {
			res.Failed++
			s.logger.Warn("digest email failed", zap.String("to", r.email), zap.Error(err))
			continue
		}
		res.Sent++
	}

	s.logger.Info("leaderboard digests sent", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	return res, nil
}
