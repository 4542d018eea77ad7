package leaderboard

import (
	"time"
)

type LeaderboardEntry struct {
	UserID          string  `json:"userId"`
	Username        string  `json:"username"`
	Name            string  `json:"name"`
	ImageURL        *string `json:"imageUrl,omitempty"`
	Branch          *string `json:"branch,omitempty"`
	GraduationYear  *int    `json:"graduationYear,omitempty"`
	LeetCodeScore   float64 `json:"leetcodeScore"`
	HackerRankScore float64 `json:"hackerrankScore"`
	GFGScore        float64 `json:"gfgScore"`
	OverallScore    float64 `json:"overallScore"`
	TotalSolved     int     `json:"totalSolved"`
	Rank            int     `json:"rank"`
	RankChange      int     `json:"rankChange"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"userPosition,omitempty"`
	TotalUsers   int                 `json:"totalUsers"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"pageSize"`
	UpdatedAt    *time.Time          `json:"updatedAt,omitempty"`
}

type Query struct {
	Page     int
	PageSize int
	Search   string
	Branch   string
	Year     int
}

type Stats struct {
	LeetCodeScore   float64   `json:"leetcodeScore"`
	HackerRankScore float64   `json:"hackerrankScore"`
	GFGScore        float64   `json:"gfgScore"`
	OverallScore    float64   `json:"overallScore"`
	TotalSolved     int       `json:"totalSolved"`
	GlobalRank      *int      `json:"globalRank"`
	PreviousRank    *int      `json:"previousRank"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type HistoryPoint struct {
	Date         time.Time `json:"date"`
	GlobalRank   int       `json:"globalRank"`
	OverallScore float64   `json:"overallScore"`
}

// RankChange describes one user's movement after a refresh.
type RankChange struct {
	UserID       string  `json:"userId"`
	Username     string  `json:"username"`
	PreviousRank int     `json:"previousRank"`
	NewRank      int     `json:"newRank"`
	OverallScore float64 `json:"overallScore"`
}

func (c RankChange) Delta() int {
	if c.PreviousRank == 0 {
		return 0
	}
	return c.PreviousRank - c.NewRank
}

type RefreshResult struct {
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	UsersRanked int       `json:"usersRanked"`
	Scraped     int       `json:"scraped"`
	Failures    int       `json:"failures"`
	Changes     int       `json:"changes"`
}

type HistoryResult struct {
	Date     time.Time `json:"date"`
	Recorded int       `json:"recorded"`
}
