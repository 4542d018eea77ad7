package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campusRankAPI/internal/types/platform"

	"golang.org/x/time/rate"
)

const leetCodeEndpoint = "https://leetcode.com/graphql"

const leetCodeQuery = `query userProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile { ranking userAvatar }
    submitStatsGlobal { acSubmissionNum { difficulty count } }
  }
  userContestRanking(username: $username) { rating attendedContestsCount }
}`

type LeetCodeClient struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
}

func NewLeetCodeClient(client *http.Client, limiter *rate.Limiter) *LeetCodeClient {
	return &LeetCodeClient{client: client, limiter: limiter, endpoint: leetCodeEndpoint}
}

type leetCodeResponse struct {
	Data struct {
		MatchedUser *struct {
			Username string `json:"username"`
			Profile  struct {
				Ranking    int    `json:"ranking"`
				UserAvatar string `json:"userAvatar"`
			} `json:"profile"`
			SubmitStatsGlobal struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
		} `json:"matchedUser"`
		UserContestRanking *struct {
			Rating                float64 `json:"rating"`
			AttendedContestsCount int     `json:"attendedContestsCount"`
		} `json:"userContestRanking"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *LeetCodeClient) Fetch(ctx context.Context, username string) (*platform.LeetCodeProfile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"query":     leetCodeQuery,
		"variables": map[string]string{"username": username},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode leetcode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build leetcode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com/"+username+"/")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leetcode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leetcode returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read leetcode response: %w", err)
	}
	return parseLeetCode(username, body)
}

func parseLeetCode(username string, body []byte) (*platform.LeetCodeProfile, error) {
	var r leetCodeResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode leetcode response: %w", err)
	}

	mu := r.Data.MatchedUser
	if mu == nil {
		for _, e := range r.Errors {
			if !strings.Contains(strings.ToLower(e.Message), "does not exist") {
				return nil, fmt.Errorf("leetcode error: %s", e.Message)
			}
		}
		return nil, ErrProfileNotFound
	}

	p := &platform.LeetCodeProfile{
		Username:  mu.Username,
		Ranking:   mu.Profile.Ranking,
		FetchedAt: time.Now().UTC(),
	}
	if p.Username == "" {
		p.Username = username
	}
	if mu.Profile.UserAvatar != "" {
		avatar := mu.Profile.UserAvatar
		p.AvatarURL = &avatar
	}

	for _, s := range mu.SubmitStatsGlobal.AcSubmissionNum {
		switch s.Difficulty {
		case "Easy":
			p.EasySolved = s.Count
		case "Medium":
			p.MediumSolved = s.Count
		case "Hard":
			p.HardSolved = s.Count
		case "All":
			p.TotalSolved = s.Count
		}
	}
	if p.TotalSolved == 0 {
		p.TotalSolved = p.EasySolved + p.MediumSolved + p.HardSolved
	}

	if cr := r.Data.UserContestRanking; cr != nil {
		p.ContestRating = cr.Rating
		p.AttendedContests = cr.AttendedContestsCount
	}
	return p, nil
}
