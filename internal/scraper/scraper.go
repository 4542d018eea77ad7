package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"campusRankAPI/internal/types/platform"
	"campusRankAPI/internal/types/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrProfileNotFound means the platform answered but has no such user.
var ErrProfileNotFound = errors.New("profile not found")

const userAgent = "Mozilla/5.0 (compatible; CampusRankBot/1.0)"

var scrapeFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scrape_failures_total",
		Help: "Profile fetches that failed, by platform",
	},
	[]string{"platform"},
)

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{scrapeFailures}
}

type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// Per-platform request rate. Zero means 1 request/second with a burst of 2.
	Rate  rate.Limit
	Burst int
}

// Fetcher pulls public stats from every platform a user has linked.
type Fetcher struct {
	LeetCode   *LeetCodeClient
	HackerRank *HackerRankClient
	GFG        *GFGClient
	timeout    time.Duration
	logger     *zap.Logger
}

func NewFetcher(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Rate == 0 {
		opts.Rate = rate.Every(time.Second)
	}
	if opts.Burst == 0 {
		opts.Burst = 2
	}

	return &Fetcher{
		LeetCode:   NewLeetCodeClient(client, rate.NewLimiter(opts.Rate, opts.Burst)),
		HackerRank: NewHackerRankClient(client, rate.NewLimiter(opts.Rate, opts.Burst)),
		GFG:        NewGFGClient(client, rate.NewLimiter(opts.Rate, opts.Burst)),
		timeout:    opts.Timeout,
		logger:     zap.L().Named("scraper"),
	}
}

// FetchAll hits each linked platform in parallel. A failing platform leaves its
// profile nil and records the error in Snapshot.Errors; the others still land.
func (f *Fetcher) FetchAll(ctx context.Context, h user.Handles) *platform.Snapshot {
	snap := &platform.Snapshot{Errors: map[platform.Name]error{}}
	errs := make([]error, 3)

	var g errgroup.Group
	if h.LeetCode != "" {
		g.Go(func() error {
			snap.LeetCode, errs[0] = fetchWithTimeout(ctx, f.timeout, func(ctx context.Context) (*platform.LeetCodeProfile, error) {
				return f.LeetCode.Fetch(ctx, h.LeetCode)
			})
			return nil
		})
	}
	if h.HackerRank != "" {
		g.Go(func() error {
			snap.HackerRank, errs[1] = fetchWithTimeout(ctx, f.timeout, func(ctx context.Context) (*platform.HackerRankProfile, error) {
				return f.HackerRank.Fetch(ctx, h.HackerRank)
			})
			return nil
		})
	}
	if h.GFG != "" {
		g.Go(func() error {
			snap.GFG, errs[2] = fetchWithTimeout(ctx, f.timeout, func(ctx context.Context) (*platform.GFGProfile, error) {
				return f.GFG.Fetch(ctx, h.GFG)
			})
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range []platform.Name{platform.LeetCode, platform.HackerRank, platform.GFG} {
		if errs[i] == nil {
			continue
		}
		snap.Errors[name] = errs[i]
		scrapeFailures.WithLabelValues(string(name)).Inc()
		f.logger.Warn("profile fetch failed", zap.String("platform", string(name)), zap.Error(errs[i]))
	}
	return snap
}

func fetchWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (*T, error)) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

// get waits on the limiter, issues a GET and returns the body for 200 responses.
func get(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
