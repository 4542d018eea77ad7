package platform

import "time"

type Name string

const (
	LeetCode   Name = "leetcode"
	HackerRank Name = "hackerrank"
	GFG        Name = "gfg"
)

type LeetCodeProfile struct {
	Username         string    `json:"username"`
	EasySolved       int       `json:"easySolved"`
	MediumSolved     int       `json:"mediumSolved"`
	HardSolved       int       `json:"hardSolved"`
	TotalSolved      int       `json:"totalSolved"`
	Ranking          int       `json:"ranking"`
	ContestRating    float64   `json:"contestRating"`
	AttendedContests int       `json:"attendedContests"`
	AvatarURL        *string   `json:"avatarUrl,omitempty"`
	FetchedAt        time.Time `json:"fetchedAt"`
}

type HackerRankBadge struct {
	Name   string `json:"name"`
	Stars  int    `json:"stars"`
	Solved int    `json:"solved"`
}

type HackerRankProfile struct {
	Username   string            `json:"username"`
	Solved     int               `json:"solved"`
	TotalStars int               `json:"totalStars"`
	Badges     []HackerRankBadge `json:"badges"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

type GFGProfile struct {
	Username      string    `json:"username"`
	CodingScore   int       `json:"codingScore"`
	TotalSolved   int       `json:"totalSolved"`
	SchoolSolved  int       `json:"schoolSolved"`
	BasicSolved   int       `json:"basicSolved"`
	EasySolved    int       `json:"easySolved"`
	MediumSolved  int       `json:"mediumSolved"`
	HardSolved    int       `json:"hardSolved"`
	InstituteRank int       `json:"instituteRank"`
	CurrentStreak int       `json:"currentStreak"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Snapshot is one fetch across all platforms. A nil profile means the platform
// was not linked or the fetch failed; Errors says which.
type Snapshot struct {
	LeetCode   *LeetCodeProfile
	HackerRank *HackerRankProfile
	GFG        *GFGProfile
	Errors     map[Name]error
}

func (s *Snapshot) Failed(p Name) bool {
	_, ok := s.Errors[p]
	return ok
}
