package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/store"
)

// NotFoundPage is cached for URLs that answered 404, so dead links are
// not requested again. It is distinct from a miss.
const NotFoundPage = "no text"

// HeadFailed is the status reported by Head when no response arrived
const HeadFailed = 1000

// fetchSleepFunc pauses before retrying a 403 (injectable for tests)
var fetchSleepFunc = time.Sleep

// RateGate delays requests to keep per-host load polite
type RateGate interface {
	Wait(ctx context.Context, rawURL string) error
	ObserveCrawlDelay(rawURL string, delay time.Duration)
}

// RobotsPolicy decides whether a URL may be fetched
type RobotsPolicy interface {
	CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error)
}

// FetchOptions configures a FetchCache
type FetchOptions struct {
	Timeout          time.Duration
	UserAgent        string
	Headers          map[string]string
	MaxBytes         int64
	ForbiddenBackoff time.Duration
	Proxy            func(*http.Request) (*url.URL, error)
	Limiter          RateGate     // optional
	Robots           RobotsPolicy // optional
}

// FetchCache is a cache-aside wrapper around an HTTP client. A stored page
// is returned without network access; there is no expiry.
type FetchCache struct {
	store      store.Store
	httpClient *http.Client
	headClient *http.Client
	opts       FetchOptions
	log        *zap.Logger
}

// HeadResult reports where a URL resolves to
type HeadResult struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// NewFetchCache creates a fetch cache over s
func NewFetchCache(s store.Store, opts FetchOptions, log *zap.Logger) *FetchCache {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.Proxy == nil {
		opts.Proxy = http.ProxyFromEnvironment
	}

	transport := &http.Transport{Proxy: opts.Proxy}

	return &FetchCache{
		store: s,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		// Head reports the first hop itself
		headClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts: opts,
		log:  log,
	}
}

// Store returns the underlying key-value store
func (f *FetchCache) Store() store.Store {
	return f.store
}

// Get returns the page body for rawURL, fetching it on a cache miss.
// ok is false when the URL could not be fetched; such URLs are not cached.
// A 404 yields NotFoundPage. A 403 blocks for the forbidden backoff and is
// retried once.
func (f *FetchCache) Get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (string, bool) {
	if page, ok := f.lookup(ctx, rawURL); ok {
		return page, true
	}
	return f.fetch(ctx, rawURL, headers, timeout, true)
}

func (f *FetchCache) fetch(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration, retryForbidden bool) (string, bool) {
	status, body, err := f.do(ctx, http.MethodGet, rawURL, headers, nil, timeout)
	if err != nil {
		f.log.Debug("Fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", false
	}

	switch {
	case status < 400:
		f.save(ctx, rawURL, body)
		return body, true

	case status == http.StatusForbidden && retryForbidden:
		f.log.Info("Forbidden, backing off", zap.String("url", rawURL), zap.Duration("backoff", f.opts.ForbiddenBackoff))
		fetchSleepFunc(f.opts.ForbiddenBackoff)
		if page, ok := f.lookup(ctx, rawURL); ok {
			return page, true
		}
		return f.fetch(ctx, rawURL, headers, timeout, false)

	case status == http.StatusNotFound:
		f.save(ctx, rawURL, NotFoundPage)
		return NotFoundPage, true

	default:
		f.log.Debug("Unexpected status", zap.String("url", rawURL), zap.Int("status", status))
		return "", false
	}
}

// Post sends form data and caches the response body. Unlike Get there is
// a single status check: anything >= 400 fails. The cache key is the URL,
// extended with the encoded form when one is given.
func (f *FetchCache) Post(ctx context.Context, rawURL string, headers map[string]string, form url.Values, timeout time.Duration) (string, bool) {
	key := rawURL
	if len(form) > 0 {
		key = rawURL + " " + form.Encode()
	}

	if page, ok := f.lookup(ctx, key); ok {
		return page, true
	}

	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	h["Content-Type"] = "application/x-www-form-urlencoded"

	status, body, err := f.do(ctx, http.MethodPost, rawURL, h, strings.NewReader(form.Encode()), timeout)
	if err != nil {
		f.log.Debug("Post failed", zap.String("url", rawURL), zap.Error(err))
		return "", false
	}
	if status >= 400 {
		f.log.Debug("Unexpected status", zap.String("url", rawURL), zap.Int("status", status))
		return "", false
	}

	f.save(ctx, key, body)
	return body, true
}

// Head resolves one redirect hop for rawURL without caching anything.
// A redirect reports its Location with status 200; a URL whose page is
// already cached reports 200 without network access; a request error
// reports HeadFailed.
func (f *FetchCache) Head(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) HeadResult {
	if _, ok := f.lookup(ctx, rawURL); ok {
		return HeadResult{URL: rawURL, StatusCode: http.StatusOK}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := f.admit(ctx, rawURL); err != nil {
		return HeadResult{URL: rawURL, StatusCode: HeadFailed}
	}

	req, err := f.newRequest(ctx, http.MethodHead, rawURL, headers, nil)
	if err != nil {
		return HeadResult{URL: rawURL, StatusCode: HeadFailed}
	}

	resp, err := f.headClient.Do(req)
	if err != nil {
		f.log.Debug("Head failed", zap.String("url", rawURL), zap.Error(err))
		return HeadResult{URL: rawURL, StatusCode: HeadFailed}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		location := resp.Header.Get("Location")
		if loc, err := resp.Request.URL.Parse(location); err == nil && location != "" {
			location = loc.String()
		}
		return HeadResult{URL: location, StatusCode: http.StatusOK}
	case resp.StatusCode < 300:
		return HeadResult{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	default:
		return HeadResult{URL: rawURL, StatusCode: resp.StatusCode}
	}
}

// do performs one request and reads the body with the size limit
func (f *FetchCache) do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader, timeout time.Duration) (int, string, error) {
	if err := f.admit(ctx, rawURL); err != nil {
		return 0, "", err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := f.newRequest(ctx, method, rawURL, headers, body)
	if err != nil {
		return 0, "", err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes))
	if err != nil {
		return 0, "", fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, string(data), nil
}

func (f *FetchCache) newRequest(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("create request: unsupported scheme %q", req.URL.Scheme)
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// admit applies robots.txt and rate limiting before a network request
func (f *FetchCache) admit(ctx context.Context, rawURL string) error {
	if f.opts.Robots != nil {
		allowed, delay, err := f.opts.Robots.CanFetch(ctx, rawURL)
		if err != nil {
			return fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return fmt.Errorf("disallowed by robots.txt")
		}
		if delay > 0 && f.opts.Limiter != nil {
			f.opts.Limiter.ObserveCrawlDelay(rawURL, delay)
		}
	}

	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, rawURL); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	return nil
}

func (f *FetchCache) lookup(ctx context.Context, key string) (string, bool) {
	page, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.log.Warn("Store read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return page, ok
}

func (f *FetchCache) save(ctx context.Context, key, page string) {
	if err := f.store.Set(ctx, key, page); err != nil {
		f.log.Warn("Store write failed", zap.String("key", key), zap.Error(err))
	}
}
