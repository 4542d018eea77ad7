package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDigest(t *testing.T) {
	html, err := RenderDigest(RankDigest{
		Name: "Ada <script>", Rank: 3, PreviousRank: 7, Score: 120.456, TotalUsers: 50,
		ProfileURL: "https://campusrank.dev/u/ada", LeaderURL: "https://campusrank.dev/leaderboard",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "#3")
	assert.Contains(t, html, "120.46")
	assert.Contains(t, html, "Up 4")
	assert.NotContains(t, html, "<script>")
}

func TestRenderDigest_Down(t *testing.T) {
	html, err := RenderDigest(RankDigest{Name: "Bo", Rank: 9, PreviousRank: 4})
	require.NoError(t, err)
	assert.Contains(t, html, "Down 5")
}

func TestRenderDigest_FirstRanking(t *testing.T) {
	html, err := RenderDigest(RankDigest{Name: "Cy", Rank: 1})
	require.NoError(t, err)
	assert.Contains(t, html, "No change")
}
