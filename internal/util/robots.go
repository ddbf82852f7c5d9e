package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

// robotsTTL bounds how long a host's robots.txt is trusted within a run
const robotsTTL = 12 * time.Hour

// RobotsChecker checks robots.txt compliance, one fetch per host
type RobotsChecker struct {
	hosts      *gocache.Cache
	httpClient *http.Client
	userAgent  string
	agent      string
}

// NewRobotsChecker creates a new robots.txt checker. proxy may be nil.
func NewRobotsChecker(userAgent string, timeout time.Duration, proxy func(*http.Request) (*url.URL, error)) *RobotsChecker {
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}
	return &RobotsChecker{
		hosts: gocache.New(robotsTTL, time.Hour),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: proxy},
		},
		userAgent: userAgent,
		agent:     NormalizeUserAgent(userAgent),
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Returns (allowed, crawlDelay, error). An unreachable robots.txt allows
// everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("parse URL: missing host in %q", rawURL)
	}

	data := r.robotsFor(ctx, parsed)

	group := data.FindGroup(r.agent)
	if group == nil {
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return group.Test(path), group.CrawlDelay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host
	if cached, ok := r.hosts.Get(key); ok {
		return cached.(*robotstxt.RobotsData)
	}

	data, err := r.fetch(ctx, key+"/robots.txt")
	if err != nil {
		// Treat as "no robots.txt"
		data, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	}
	r.hosts.SetDefault(key, data)
	return data
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// Forget drops the cached robots.txt of every host
func (r *RobotsChecker) Forget() {
	r.hosts.Flush()
}

// NormalizeUserAgent extracts the product token used for robots.txt
// matching. "Mozilla/5.0 (compatible; claimharvest/0.3; +url)" yields
// "claimharvest"; "curl/8.0" yields "curl".
func NormalizeUserAgent(ua string) string {
	if i := strings.Index(ua, "compatible;"); i >= 0 {
		rest := strings.TrimSpace(ua[i+len("compatible;"):])
		if fields := strings.FieldsFunc(rest, func(r rune) bool { return r == ';' || r == ')' || r == ' ' }); len(fields) > 0 {
			return strings.Split(fields[0], "/")[0]
		}
	}

	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
