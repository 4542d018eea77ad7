package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campusRankAPI/internal/types/platform"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type HackerRankClient struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

func NewHackerRankClient(client *http.Client, limiter *rate.Limiter) *HackerRankClient {
	return &HackerRankClient{client: client, limiter: limiter, baseURL: "https://www.hackerrank.com"}
}

// Fetch scrapes badges and stars from the public profile page, then fills in
// per-badge solved counts from the badges feed when it answers.
func (c *HackerRankClient) Fetch(ctx context.Context, username string) (*platform.HackerRankProfile, error) {
	page, err := get(ctx, c.client, c.limiter, c.baseURL+"/profile/"+url.PathEscape(username))
	if err != nil {
		return nil, err
	}

	p, err := parseHackerRankProfile(username, page)
	if err != nil {
		return nil, err
	}

	feed, err := get(ctx, c.client, c.limiter, c.baseURL+"/rest/hackers/"+url.PathEscape(username)+"/badges")
	if err == nil {
		mergeHackerRankSolved(p, feed)
	}
	return p, nil
}

func parseHackerRankProfile(username string, page []byte) (*platform.HackerRankProfile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hackerrank page: %w", err)
	}

	if strings.Contains(strings.ToLower(doc.Find("title").Text()), "page not found") {
		return nil, ErrProfileNotFound
	}

	p := &platform.HackerRankProfile{
		Username:  username,
		Badges:    []platform.HackerRankBadge{},
		FetchedAt: time.Now().UTC(),
	}

	doc.Find(".hacker-badge").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".badge-title").First().Text())
		if title == "" {
			return
		}
		stars := s.Find(".badge-star").Length()
		p.Badges = append(p.Badges, platform.HackerRankBadge{Name: title, Stars: stars})
		p.TotalStars += stars
	})
	return p, nil
}

type hackerRankBadgeFeed struct {
	Models []struct {
		BadgeName string `json:"badge_name"`
		Stars     int    `json:"stars"`
		Solved    int    `json:"solved"`
	} `json:"models"`
}

func mergeHackerRankSolved(p *platform.HackerRankProfile, feed []byte) {
	var f hackerRankBadgeFeed
	if err := json.Unmarshal(feed, &f); err != nil {
		return
	}

	solved := make(map[string]int, len(f.Models))
	for _, m := range f.Models {
		solved[strings.ToLower(m.BadgeName)] = m.Solved
	}

	p.Solved = 0
	for i := range p.Badges {
		n := solved[strings.ToLower(p.Badges[i].Name)]
		p.Badges[i].Solved = n
		p.Solved += n
	}
}
