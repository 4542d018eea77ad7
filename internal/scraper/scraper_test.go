package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusRankAPI/internal/types/platform"
	"campusRankAPI/internal/types/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const leetCodeFixture = `{
  "data": {
    "matchedUser": {
      "username": "alice",
      "profile": {"ranking": 12345, "userAvatar": "https://assets.leetcode.com/a.png"},
      "submitStatsGlobal": {"acSubmissionNum": [
        {"difficulty": "All", "count": 60},
        {"difficulty": "Easy", "count": 30},
        {"difficulty": "Medium", "count": 20},
        {"difficulty": "Hard", "count": 10}
      ]}
    },
    "userContestRanking": {"rating": 1650.5, "attendedContestsCount": 7}
  }
}`

const leetCodeMissing = `{"errors":[{"message":"That user does not exist."}],"data":{"matchedUser":null}}`

const hackerRankFixture = `<html><head><title>alice | HackerRank Profile</title></head><body>
<div class="hacker-badges">
  <div class="hacker-badge"><svg class="badge"><text class="badge-title">Problem Solving</text>
    <g class="star-section"><svg class="badge-star"></svg><svg class="badge-star"></svg><svg class="badge-star"></svg></g></svg></div>
  <div class="hacker-badge"><svg class="badge"><text class="badge-title">Python</text>
    <g class="star-section"><svg class="badge-star"></svg></g></svg></div>
  <div class="hacker-badge"><svg class="badge"></svg></div>
</div></body></html>`

const hackerRankFeed = `{"models":[{"badge_name":"Problem Solving","stars":3,"solved":40},{"badge_name":"Python","stars":1,"solved":8}]}`

const gfgFixture = `<html><body><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{
  "userInfo":{"score":"320","total_problems_solved":9,"institute_rank":"4","pod_solved_current_streak":12},
  "userSubmissionsInfo":{
    "School":{"1":{}},
    "Basic":{"2":{},"3":{}},
    "Easy":{"4":{},"5":{},"6":{}},
    "Medium":{"7":{},"8":{}},
    "Hard":{"9":{}}
  }
}}}
</script></body></html>`

func TestParseLeetCode(t *testing.T) {
	p, err := parseLeetCode("alice", []byte(leetCodeFixture))
	require.NoError(t, err)

	assert.Equal(t, 30, p.EasySolved)
	assert.Equal(t, 20, p.MediumSolved)
	assert.Equal(t, 10, p.HardSolved)
	assert.Equal(t, 60, p.TotalSolved)
	assert.Equal(t, 12345, p.Ranking)
	assert.Equal(t, 1650.5, p.ContestRating)
	assert.Equal(t, 7, p.AttendedContests)
	require.NotNil(t, p.AvatarURL)
}

func TestParseLeetCode_UnknownUser(t *testing.T) {
	_, err := parseLeetCode("ghost", []byte(leetCodeMissing))
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestParseLeetCode_OtherGraphQLError(t *testing.T) {
	_, err := parseLeetCode("x", []byte(`{"errors":[{"message":"rate limited"}],"data":{"matchedUser":null}}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProfileNotFound))
}

func TestParseHackerRank(t *testing.T) {
	p, err := parseHackerRankProfile("alice", []byte(hackerRankFixture))
	require.NoError(t, err)

	require.Len(t, p.Badges, 2)
	assert.Equal(t, "Problem Solving", p.Badges[0].Name)
	assert.Equal(t, 3, p.Badges[0].Stars)
	assert.Equal(t, 4, p.TotalStars)

	mergeHackerRankSolved(p, []byte(hackerRankFeed))
	assert.Equal(t, 48, p.Solved)
	assert.Equal(t, 8, p.Badges[1].Solved)
}

func TestParseHackerRank_NotFoundPage(t *testing.T) {
	_, err := parseHackerRankProfile("ghost", []byte(`<html><head><title>Page Not Found | HackerRank</title></head></html>`))
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestParseGFG(t *testing.T) {
	p, err := parseGFG("alice", []byte(gfgFixture))
	require.NoError(t, err)

	assert.Equal(t, 320, p.CodingScore)
	assert.Equal(t, 9, p.TotalSolved)
	assert.Equal(t, 4, p.InstituteRank)
	assert.Equal(t, 12, p.CurrentStreak)
	assert.Equal(t, 1, p.SchoolSolved)
	assert.Equal(t, 2, p.BasicSolved)
	assert.Equal(t, 3, p.EasySolved)
	assert.Equal(t, 2, p.MediumSolved)
	assert.Equal(t, 1, p.HardSolved)
}

func TestParseGFG_NoUserInfo(t *testing.T) {
	page := `<script id="__NEXT_DATA__">{"props":{"pageProps":{}}}</script>`
	_, err := parseGFG("ghost", []byte(page))
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestParseGFG_NoScript(t *testing.T) {
	_, err := parseGFG("ghost", []byte(`<html></html>`))
	assert.Error(t, err)
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	f := NewFetcher(Options{HTTPClient: srv.Client(), Timeout: 2 * time.Second, Rate: rate.Inf, Burst: 1})
	f.LeetCode.endpoint = srv.URL + "/graphql"
	f.HackerRank.baseURL = srv.URL
	f.GFG.baseURL = srv.URL
	return f
}

func TestFetchAll_PartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Variables map[string]string `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.Variables["username"])
		w.Write([]byte(leetCodeFixture))
	})
	mux.HandleFunc("/profile/alice", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hackerRankFixture))
	})
	mux.HandleFunc("/rest/hackers/alice/badges", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hackerRankFeed))
	})
	mux.HandleFunc("/user/alice/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snap := newTestFetcher(srv).FetchAll(context.Background(), user.Handles{
		LeetCode: "alice", HackerRank: "alice", GFG: "alice",
	})

	require.NotNil(t, snap.LeetCode)
	require.NotNil(t, snap.HackerRank)
	assert.Nil(t, snap.GFG)
	assert.True(t, snap.Failed(platform.GFG))
	assert.False(t, snap.Failed(platform.LeetCode))
	assert.Equal(t, 48, snap.HackerRank.Solved)
}

func TestFetchAll_SkipsUnlinked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	snap := newTestFetcher(srv).FetchAll(context.Background(), user.Handles{})
	assert.Nil(t, snap.LeetCode)
	assert.Nil(t, snap.HackerRank)
	assert.Nil(t, snap.GFG)
	assert.Empty(t, snap.Errors)
}

func TestFetch_404IsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFetcher(srv).GFG.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
