package services

import (
	"testing"

	"campusRankAPI/internal/scoring"
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStandings_OrdersAndBreaksTies(t *testing.T) {
	in := []standingInput{
		{UserID: "c", Username: "carol", LeetCode: &platform.LeetCodeProfile{EasySolved: 10, TotalSolved: 10}},
		{UserID: "a", Username: "alice", LeetCode: &platform.LeetCodeProfile{EasySolved: 4, MediumSolved: 3, TotalSolved: 7}},
		{UserID: "b", Username: "bob", HackerRank: &platform.HackerRankProfile{Solved: 10, TotalStars: 0}},
		{UserID: "d", Username: "dave"},
	}

	out := computeStandings(in, scoring.DefaultWeights())
	require.Len(t, out, 4)

	// carol and bob both score 10 with 10 solved, so id decides
	assert.Equal(t, "b", out[0].UserID)
	assert.Equal(t, "c", out[1].UserID)
	assert.Equal(t, "a", out[2].UserID)
	assert.Equal(t, "d", out[3].UserID)

	for i, st := range out {
		assert.Equal(t, i+1, st.Rank)
	}
	assert.Equal(t, 10.0, out[2].Breakdown.Overall)
	assert.Equal(t, 0.0, out[3].Breakdown.Overall)
}

func TestComputeStandings_AppliesWeights(t *testing.T) {
	in := []standingInput{
		{UserID: "a", GFG: &platform.GFGProfile{SchoolSolved: 1, BasicSolved: 1, HardSolved: 1}},
	}

	out := computeStandings(in, scoring.Weights{LeetCode: 1, HackerRank: 1, GFG: 2})
	require.Len(t, out, 1)
	assert.Equal(t, 8.0, out[0].Breakdown.Overall)
}

func TestRankChanges(t *testing.T) {
	standings := []*standing{
		{UserID: "a", Username: "alice", Rank: 1, OldRank: 2, Breakdown: scoring.Breakdown{Overall: 50}},
		{UserID: "b", Username: "bob", Rank: 2, OldRank: 1},
		{UserID: "c", Username: "carol", Rank: 3, OldRank: 3},
		{UserID: "d", Username: "dave", Rank: 4, OldRank: 0},
	}

	changes := rankChanges(standings)
	require.Len(t, changes, 2)
	assert.Equal(t, leaderboard.RankChange{UserID: "a", Username: "alice", PreviousRank: 2, NewRank: 1, OverallScore: 50}, changes[0])
	assert.Equal(t, 1, changes[0].Delta())
	assert.Equal(t, -1, changes[1].Delta())
}

func TestLeaderboardCacheKey_NormalisesFilters(t *testing.T) {
	a := leaderboardCacheKey(leaderboard.Query{Page: 1, PageSize: 20, Search: " Alice ", Branch: "CSE"})
	b := leaderboardCacheKey(leaderboard.Query{Page: 1, PageSize: 20, Search: "alice", Branch: "cse"})
	c := leaderboardCacheKey(leaderboard.Query{Page: 2, PageSize: 20, Search: "alice", Branch: "cse"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "leaderboard:")
}
