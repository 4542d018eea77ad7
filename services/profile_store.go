package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/platform"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The snapshot getters return nil once the stored row no longer belongs to the
// handle currently linked, so an unlinked or changed handle hides stale data.
func getLeetCodeProfile(ctx context.Context, db execer, userID string) (*platform.LeetCodeProfile, error) {
	p := &platform.LeetCodeProfile{}
	err := db.QueryRow(ctx, `
		SELECT p.username, p.easy_solved, p.medium_solved, p.hard_solved, p.total_solved, p.ranking,
			p.contest_rating, p.attended_contests, p.avatar_url, p.fetched_at
		FROM leetcode_profiles p
		JOIN users u ON u.id = p.user_id AND LOWER(p.username) = LOWER(u.leetcode_username)
		WHERE p.user_id = $1`, userID,
	).Scan(&p.Username, &p.EasySolved, &p.MediumSolved, &p.HardSolved, &p.TotalSolved, &p.Ranking,
		&p.ContestRating, &p.AttendedContests, &p.AvatarURL, &p.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load leetcode profile: %w", err)
	}
	return p, nil
}

func getHackerRankProfile(ctx context.Context, db execer, userID string) (*platform.HackerRankProfile, error) {
	p := &platform.HackerRankProfile{}
	var badges []byte
	err := db.QueryRow(ctx, `
		SELECT p.username, p.solved, p.total_stars, p.badges, p.fetched_at
		FROM hackerrank_profiles p
		JOIN users u ON u.id = p.user_id AND LOWER(p.username) = LOWER(u.hackerrank_username)
		WHERE p.user_id = $1`, userID,
	).Scan(&p.Username, &p.Solved, &p.TotalStars, &badges, &p.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hackerrank profile: %w", err)
	}
	if err := json.Unmarshal(badges, &p.Badges); err != nil {
		return nil, fmt.Errorf("failed to decode hackerrank badges: %w", err)
	}
	return p, nil
}

func getGFGProfile(ctx context.Context, db execer, userID string) (*platform.GFGProfile, error) {
	p := &platform.GFGProfile{}
	err := db.QueryRow(ctx, `
		SELECT p.username, p.coding_score, p.total_solved, p.school_solved, p.basic_solved, p.easy_solved,
			p.medium_solved, p.hard_solved, p.institute_rank, p.current_streak, p.fetched_at
		FROM gfg_profiles p
		JOIN users u ON u.id = p.user_id AND LOWER(p.username) = LOWER(u.gfg_username)
		WHERE p.user_id = $1`, userID,
	).Scan(&p.Username, &p.CodingScore, &p.TotalSolved, &p.SchoolSolved, &p.BasicSolved, &p.EasySolved,
		&p.MediumSolved, &p.HardSolved, &p.InstituteRank, &p.CurrentStreak, &p.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gfg profile: %w", err)
	}
	return p, nil
}

func getStats(ctx context.Context, db execer, userID string) (*leaderboard.Stats, error) {
	st := &leaderboard.Stats{}
	err := db.QueryRow(ctx, `
		SELECT leetcode_score, hackerrank_score, gfg_score, overall_score, total_solved,
			global_rank, previous_rank, updated_at
		FROM leaderboard_stats WHERE user_id = $1`, userID,
	).Scan(&st.LeetCodeScore, &st.HackerRankScore, &st.GFGScore, &st.OverallScore, &st.TotalSolved,
		&st.GlobalRank, &st.PreviousRank, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard stats: %w", err)
	}
	return st, nil
}

func getHistory(ctx context.Context, db *pgxpool.Pool, userID string, limit int) ([]*leaderboard.HistoryPoint, error) {
	rows, err := db.Query(ctx, `
		SELECT snapshot_date, global_rank, overall_score FROM (
			SELECT snapshot_date, global_rank, overall_score FROM leaderboard_history
			WHERE user_id = $1 ORDER BY snapshot_date DESC LIMIT $2
		) recent ORDER BY snapshot_date ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	points := []*leaderboard.HistoryPoint{}
	for rows.Next() {
		p := &leaderboard.HistoryPoint{}
		if err := rows.Scan(&p.Date, &p.GlobalRank, &p.OverallScore); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// saveSnapshot upserts whatever the fetch produced. Failed or unlinked
// platforms are left untouched so the previous snapshot survives.
func saveSnapshot(ctx context.Context, db execer, userID string, snap *platform.Snapshot) error {
	if lc := snap.LeetCode; lc != nil {
		_, err := db.Exec(ctx, `
			INSERT INTO leetcode_profiles (user_id, username, easy_solved, medium_solved, hard_solved, total_solved,
				ranking, contest_rating, attended_contests, avatar_url, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (user_id) DO UPDATE SET
				username = EXCLUDED.username, easy_solved = EXCLUDED.easy_solved,
				medium_solved = EXCLUDED.medium_solved, hard_solved = EXCLUDED.hard_solved,
				total_solved = EXCLUDED.total_solved, ranking = EXCLUDED.ranking,
				contest_rating = EXCLUDED.contest_rating, attended_contests = EXCLUDED.attended_contests,
				avatar_url = EXCLUDED.avatar_url, fetched_at = EXCLUDED.fetched_at`,
			userID, lc.Username, lc.EasySolved, lc.MediumSolved, lc.HardSolved, lc.TotalSolved,
			lc.Ranking, lc.ContestRating, lc.AttendedContests, lc.AvatarURL, lc.FetchedAt)
		if err != nil {
			return fmt.Errorf("failed to save leetcode profile: %w", err)
		}
	}

	if hr := snap.HackerRank; hr != nil {
		badges, err := json.Marshal(hr.Badges)
		if err != nil {
			return fmt.Errorf("failed to encode badges: %w", err)
		}
		_, err = db.Exec(ctx, `
			INSERT INTO hackerrank_profiles (user_id, username, solved, total_stars, badges, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO UPDATE SET
				username = EXCLUDED.username, solved = EXCLUDED.solved, total_stars = EXCLUDED.total_stars,
				badges = EXCLUDED.badges, fetched_at = EXCLUDED.fetched_at`,
			userID, hr.Username, hr.Solved, hr.TotalStars, badges, hr.FetchedAt)
		if err != nil {
			return fmt.Errorf("failed to save hackerrank profile: %w", err)
		}
	}

	if g := snap.GFG; g != nil {
		_, err := db.Exec(ctx, `
			INSERT INTO gfg_profiles (user_id, username, coding_score, total_solved, school_solved, basic_solved,
				easy_solved, medium_solved, hard_solved, institute_rank, current_streak, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id) DO UPDATE SET
				username = EXCLUDED.username, coding_score = EXCLUDED.coding_score,
				total_solved = EXCLUDED.total_solved, school_solved = EXCLUDED.school_solved,
				basic_solved = EXCLUDED.basic_solved, easy_solved = EXCLUDED.easy_solved,
				medium_solved = EXCLUDED.medium_solved, hard_solved = EXCLUDED.hard_solved,
				institute_rank = EXCLUDED.institute_rank, current_streak = EXCLUDED.current_streak,
				fetched_at = EXCLUDED.fetched_at`,
			userID, g.Username, g.CodingScore, g.TotalSolved, g.SchoolSolved, g.BasicSolved,
			g.EasySolved, g.MediumSolved, g.HardSolved, g.InstituteRank, g.CurrentStreak, g.FetchedAt)
		if err != nil {
			return fmt.Errorf("failed to save gfg profile: %w", err)
		}
	}
	return nil
}
