package scoring

import (
	"testing"

	"campusRankAPI/internal/types/platform"

	"github.com/stretchr/testify/assert"
)

func TestPlatformPoints(t *testing.T) {
	lc := &platform.LeetCodeProfile{EasySolved: 10, MediumSolved: 5, HardSolved: 2}
	assert.Equal(t, 26.0, LeetCodePoints(lc))

	gfg := &platform.GFGProfile{SchoolSolved: 3, BasicSolved: 2, EasySolved: 4, MediumSolved: 1, HardSolved: 1}
	assert.Equal(t, 11.5, GFGPoints(gfg))

	hr := &platform.HackerRankProfile{Solved: 7, TotalStars: 4}
	assert.Equal(t, 15.0, HackerRankPoints(hr))

	assert.Zero(t, LeetCodePoints(nil))
	assert.Zero(t, GFGPoints(nil))
	assert.Zero(t, HackerRankPoints(nil))
}

func TestScore_Weighted(t *testing.T) {
	lc := &platform.LeetCodeProfile{EasySolved: 10, MediumSolved: 5, HardSolved: 2, TotalSolved: 17}
	hr := &platform.HackerRankProfile{Solved: 7, TotalStars: 4}
	gfg := &platform.GFGProfile{SchoolSolved: 1, TotalSolved: 1}

	b := Score(Weights{LeetCode: 1.5, HackerRank: 0.5, GFG: 2}, lc, hr, gfg)

	assert.Equal(t, 26.0, b.LeetCode)
	assert.Equal(t, 15.0, b.HackerRank)
	assert.Equal(t, 0.5, b.GFG)
	assert.Equal(t, 47.5, b.Overall)
	assert.Equal(t, 25, b.TotalSolved)
}

func TestScore_MissingPlatforms(t *testing.T) {
	b := Score(DefaultWeights(), nil, nil, &platform.GFGProfile{EasySolved: 3, TotalSolved: 3})
	assert.Equal(t, 3.0, b.Overall)
	assert.Equal(t, 3, b.TotalSolved)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 1.24, Round2(1.235001))
	assert.Equal(t, 0.0, Round2(0))
}

func TestRank_TieBreaks(t *testing.T) {
	rows := []*Ranked{
		{UserID: "c", Overall: 50, TotalSolved: 10},
		{UserID: "b", Overall: 80, TotalSolved: 5},
		{UserID: "a", Overall: 50, TotalSolved: 10},
		{UserID: "d", Overall: 50, TotalSolved: 20},
		{UserID: "e", Overall: 0},
	}

	Rank(rows)

	var order []string
	for i, r := range rows {
		order = append(order, r.UserID)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, order)
}

func TestRank_Empty(t *testing.T) {
	assert.NotPanics(t, func() { Rank(nil) })
}
