package admin

import (
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/user"
)

type LinkedProfiles struct {
	LeetCode   int `json:"leetcode"`
	HackerRank int `json:"hackerrank"`
	GFG        int `json:"gfg"`
}

type Stats struct {
	TotalUsers        int                             `json:"totalUsers"`
	LinkedProfiles    LinkedProfiles                  `json:"linkedProfiles"`
	RankedUsers       int                             `json:"rankedUsers"`
	OpenReports       int                             `json:"openReports"`
	PublishedBlogs    int                             `json:"publishedBlogs"`
	ErrorLogs         int                             `json:"errorLogs"`
	PushSubscriptions int                             `json:"pushSubscriptions"`
	LastRefresh       *leaderboard.RefreshResult      `json:"lastRefresh"`
	RefreshRunning    bool                            `json:"refreshRunning"`
	TopUsers          []*leaderboard.LeaderboardEntry `json:"topUsers"`
}

type UserList struct {
	Users    []*user.User `json:"users"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}
