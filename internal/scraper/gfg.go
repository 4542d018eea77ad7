package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campusRankAPI/internal/types/platform"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type GFGClient struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

func NewGFGClient(client *http.Client, limiter *rate.Limiter) *GFGClient {
	return &GFGClient{client: client, limiter: limiter, baseURL: "https://www.geeksforgeeks.org"}
}

func (c *GFGClient) Fetch(ctx context.Context, username string) (*platform.GFGProfile, error) {
	page, err := get(ctx, c.client, c.limiter, c.baseURL+"/user/"+url.PathEscape(username)+"/")
	if err != nil {
		return nil, err
	}
	return parseGFG(username, page)
}

// flexInt accepts both 12 and "12"; the profile payload mixes the two.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexInt(n)
		return nil
	}
	if string(b) == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type gfgNextData struct {
	Props struct {
		PageProps struct {
			UserInfo *struct {
				Score               flexInt `json:"score"`
				TotalProblemsSolved flexInt `json:"total_problems_solved"`
				InstituteRank       flexInt `json:"institute_rank"`
				CurrentStreak       flexInt `json:"pod_solved_current_streak"`
			} `json:"userInfo"`
			UserSubmissionsInfo map[string]map[string]json.RawMessage `json:"userSubmissionsInfo"`
		} `json:"pageProps"`
	} `json:"props"`
}

func parseGFG(username string, page []byte) (*platform.GFGProfile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse gfg page: %w", err)
	}

	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, fmt.Errorf("gfg page has no profile data")
	}

	var data gfgNextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode gfg profile data: %w", err)
	}

	info := data.Props.PageProps.UserInfo
	if info == nil {
		return nil, ErrProfileNotFound
	}

	subs := data.Props.PageProps.UserSubmissionsInfo
	p := &platform.GFGProfile{
		Username:      username,
		CodingScore:   int(info.Score),
		TotalSolved:   int(info.TotalProblemsSolved),
		InstituteRank: int(info.InstituteRank),
		CurrentStreak: int(info.CurrentStreak),
		SchoolSolved:  len(subs["School"]),
		BasicSolved:   len(subs["Basic"]),
		EasySolved:    len(subs["Easy"]),
		MediumSolved:  len(subs["Medium"]),
		HardSolved:    len(subs["Hard"]),
		FetchedAt:     time.Now().UTC(),
	}
	if p.TotalSolved == 0 {
		p.TotalSolved = p.SchoolSolved + p.BasicSolved + p.EasySolved + p.MediumSolved + p.HardSolved
	}
	return p, nil
}
