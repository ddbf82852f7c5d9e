package adapters

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
	"github.com/ppiankov/claimharvest/internal/verdict"
)

// Adapter defines the interface for site-specific extractors
type Adapter interface {
	// Name returns the site identifier stored in Claim.Source
	Name() string

	// CanHandle checks if this adapter knows the layout of the given URL
	CanHandle(rawURL string) bool

	// ListingSources returns the listing-page sequences to paginate
	ListingSources() []Source

	// ExtractURLs extracts detail-page URLs from one listing page
	ExtractURLs(doc *goquery.Document, listingURL string) []string

	// ExtractClaimAndReview extracts every claim of one detail page
	ExtractClaimAndReview(ctx context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error)
}

// PageCounter is implemented by sites whose first listing page states the
// total number of listing pages
type PageCounter interface {
	PageCount(doc *goquery.Document) (int, error)
}

// Source is one listing-page sequence: a fixed list of URLs, a page-number
// formatter, or both. With both, Static pages come first and Format
// continues from page len(Static)+1.
type Source struct {
	Static []string
	Format func(page int) string
}

// Deps are the collaborators shared by all adapters
type Deps struct {
	Ratings *rating.Normalizer
	Verdict verdict.Classifier
	Log     *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Ratings == nil {
		d.Ratings = rating.NewNormalizer()
	}
	if d.Verdict == nil {
		d.Verdict = verdict.NewHeuristic()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
	generic  Adapter
	ratings  *rating.Normalizer
}

// NewRegistry creates a registry holding every built-in site adapter
func NewRegistry(deps Deps) *Registry {
	deps = deps.withDefaults()

	registry := &Registry{
		byName:  make(map[string]Adapter),
		ratings: deps.Ratings,
	}

	registry.Register(NewPolitifactAdapter(deps))
	registry.Register(NewFullfactAdapter(deps))
	registry.Register(NewEUFactcheckAdapter(deps))
	registry.Register(NewAFPFactcheckAdapter(deps))

	// Fallback for pages of unknown sites
	registry.generic = NewGenericAdapter(deps)

	return registry
}

// Register registers a new adapter, replacing any adapter of the same name
func (r *Registry) Register(adapter Adapter) {
	if _, ok := r.byName[adapter.Name()]; ok {
		r.adapters = slices.DeleteFunc(r.adapters, func(a Adapter) bool { return a.Name() == adapter.Name() })
	}
	r.adapters = append(r.adapters, adapter)
	r.byName[adapter.Name()] = adapter
}

// Get returns the adapter registered under name
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names lists the registered site names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	slices.Sort(names)
	return names
}

// All returns the registered adapters in name order
func (r *Registry) All() []Adapter {
	all := slices.Clone(r.adapters)
	slices.SortFunc(all, func(a, b Adapter) int { return strings.Compare(a.Name(), b.Name()) })
	return all
}

// Select returns the adapter for website, or every adapter when website is empty
func (r *Registry) Select(website string) ([]Adapter, bool) {
	if website == "" {
		return r.All(), true
	}
	a, ok := r.Get(website)
	if !ok {
		return nil, false
	}
	return []Adapter{a}, true
}

// FindAdapter finds the adapter for the given URL, falling back to generic
func (r *Registry) FindAdapter(rawURL string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL) {
			return adapter
		}
	}
	return r.generic
}

// Ratings returns the normalizer the adapters registered their tables with
func (r *Registry) Ratings() *rating.Normalizer {
	return r.ratings
}

// hostIs reports whether rawURL points at host or one of its subdomains
func hostIs(rawURL string, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return h == host || strings.HasSuffix(h, "."+host)
}

// absolute prefixes site-relative hrefs with origin
func absolute(origin, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return origin + href
}

// hrefs collects the href of every match of selector, made absolute against
// origin when origin is set. The avoid list is applied by the paginator.
func hrefs(doc *goquery.Document, selector, origin string, skip func(string) bool) []string {
	var urls []string
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		u := href
		if origin != "" {
			u = absolute(origin, href)
		}
		if skip != nil && skip(u) {
			return
		}
		urls = append(urls, u)
	})
	return urls
}
