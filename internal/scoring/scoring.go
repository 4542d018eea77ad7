package scoring

import (
	"math"
	"sort"

	"campusRankAPI/internal/types/platform"
)

type Weights struct {
	LeetCode   float64
	HackerRank float64
	GFG        float64
}

func DefaultWeights() Weights {
	return Weights{LeetCode: 1, HackerRank: 1, GFG: 1}
}

// Breakdown is one user's per-platform points and weighted total.
type Breakdown struct {
	LeetCode    float64
	HackerRank  float64
	GFG         float64
	Overall     float64
	TotalSolved int
}

func LeetCodePoints(p *platform.LeetCodeProfile) float64 {
	if p == nil {
		return 0
	}
	return float64(p.EasySolved) + 2*float64(p.MediumSolved) + 3*float64(p.HardSolved)
}

func GFGPoints(p *platform.GFGProfile) float64 {
	if p == nil {
		return 0
	}
	return 0.5*float64(p.SchoolSolved) + 0.5*float64(p.BasicSolved) +
		float64(p.EasySolved) + 2*float64(p.MediumSolved) + 3*float64(p.HardSolved)
}

func HackerRankPoints(p *platform.HackerRankProfile) float64 {
	if p == nil {
		return 0
	}
	return float64(p.Solved) + 2*float64(p.TotalStars)
}

// Score computes the breakdown for one user. Missing platforms add nothing.
func Score(w Weights, lc *platform.LeetCodeProfile, hr *platform.HackerRankProfile, gfg *platform.GFGProfile) Breakdown {
	b := Breakdown{
		LeetCode:   Round2(LeetCodePoints(lc)),
		HackerRank: Round2(HackerRankPoints(hr)),
		GFG:        Round2(GFGPoints(gfg)),
	}
	b.Overall = Round2(w.LeetCode*b.LeetCode + w.HackerRank*b.HackerRank + w.GFG*b.GFG)

	if lc != nil {
		b.TotalSolved += lc.TotalSolved
	}
	if hr != nil {
		b.TotalSolved += hr.Solved
	}
	if gfg != nil {
		b.TotalSolved += gfg.TotalSolved
	}
	return b
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Ranked is the input and output of Rank.
type Ranked struct {
	UserID      string
	Overall     float64
	TotalSolved int
	Rank        int
}

// Rank sorts by overall desc, total solved desc, user id asc and assigns
// ranks 1..N with no ties. The slice is sorted in place.
func Rank(rows []*Ranked) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Overall != b.Overall {
			return a.Overall > b.Overall
		}
		if a.TotalSolved != b.TotalSolved {
			return a.TotalSolved > b.TotalSolved
		}
		return a.UserID < b.UserID
	})
	for i, r := range rows {
		r.Rank = i + 1
	}
}
