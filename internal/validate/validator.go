package validate

import (
	"context"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ppiankov/claimharvest/internal/cache"
	"github.com/ppiankov/claimharvest/internal/model"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Header resolves where a URL points without downloading it
type Header interface {
	Head(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) cache.HeadResult
}

// LinkResolver resolves referred links concurrently
type LinkResolver struct {
	head       Header
	timeout    time.Duration
	maxWorkers int64
	log        *zap.Logger
}

// NewLinkResolver creates a new resolver
func NewLinkResolver(head Header, timeout time.Duration, maxWorkers int, log *zap.Logger) *LinkResolver {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkResolver{
		head:       head,
		timeout:    timeout,
		maxWorkers: int64(maxWorkers),
		log:        log,
	}
}

// Resolve resolves all links concurrently. Results keep the order of links.
func (r *LinkResolver) Resolve(ctx context.Context, links []string) []cache.HeadResult {
	results := make([]cache.HeadResult, len(links))
	if len(links) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(r.maxWorkers)
	done := make(chan struct{}, len(links))

	for i, link := range links {
		if err := acquire(ctx, sem); err != nil {
			// Cancelled: the remaining links stay unresolved
			for j := i; j < len(links); j++ {
				results[j] = cache.HeadResult{URL: links[j], StatusCode: cache.HeadFailed}
				done <- struct{}{}
			}
			break
		}
		go func(idx int, u string) {
			defer func() {
				sem.Release(1)
				done <- struct{}{}
			}()
			results[idx] = r.resolveWithRetry(ctx, u)
		}(i, link)
	}

	for range links {
		<-done
	}
	return results
}

func acquire(ctx context.Context, sem *semaphore.Weighted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sem.Acquire(ctx, 1)
}

// resolveWithRetry retries transient failures with exponential backoff
func (r *LinkResolver) resolveWithRetry(ctx context.Context, link string) cache.HeadResult {
	var result cache.HeadResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = r.head.Head(ctx, link, nil, r.timeout)
		if !isRetryable(result.StatusCode) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryable returns true for statuses that indicate transient failures
func isRetryable(status int) bool {
	return status == cache.HeadFailed ||
		status == http.StatusTooManyRequests ||
		(status >= 500 && status < 600)
}

// Enrich replaces each referred link of claim with the target it resolves
// to. Links that fail to resolve are kept as they are.
func (r *LinkResolver) Enrich(ctx context.Context, claim *model.Claim) {
	var links []string
	var positions []int
	for i, link := range claim.ReferredLinks {
		if model.IsPlaceholder(link) {
			continue
		}
		links = append(links, link)
		positions = append(positions, i)
	}
	if len(links) == 0 {
		return
	}

	resolved := slices.Clone(claim.ReferredLinks)
	for i, res := range r.Resolve(ctx, links) {
		if res.StatusCode < 400 && res.URL != "" {
			resolved[positions[i]] = res.URL
		} else {
			r.log.Debug("Link did not resolve", zap.String("url", links[i]), zap.Int("status", res.StatusCode))
		}
	}
	claim.ReferredLinks = dedupe(resolved)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
