package adapters

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/verdict"
)

const fullfactOrigin = "https://fullfact.org"

var fullfactListings = []string{
	"https://fullfact.org/latest/",
	"https://fullfact.org/health/all/",
	"https://fullfact.org/economy/all",
	"https://fullfact.org/europe/all",
	"https://fullfact.org/crime/all",
	"https://fullfact.org/law/all",
	"https://fullfact.org/education/all",
}

// FullfactAdapter extracts fact checks from fullfact.org. One page may
// review several claims, each with a free-text conclusion instead of a
// rating.
type FullfactAdapter struct {
	verdict verdict.Classifier
	log     *zap.Logger
}

// NewFullfactAdapter creates the fullfact adapter
func NewFullfactAdapter(deps Deps) *FullfactAdapter {
	deps = deps.withDefaults()
	return &FullfactAdapter{verdict: deps.Verdict, log: deps.Log}
}

// Name returns the adapter name
func (a *FullfactAdapter) Name() string {
	return "fullfact"
}

// CanHandle checks for fullfact.org URLs
func (a *FullfactAdapter) CanHandle(rawURL string) bool {
	return hostIs(rawURL, "fullfact.org")
}

// ListingSources returns one sequence per topic listing
func (a *FullfactAdapter) ListingSources() []Source {
	sources := make([]Source, 0, len(fullfactListings))
	for _, base := range fullfactListings {
		sources = append(sources, Source{
			Format: func(page int) string { return base + "?page=" + strconv.Itoa(page) },
		})
	}
	return sources
}

// ExtractURLs extracts the first link of every card
func (a *FullfactAdapter) ExtractURLs(doc *goquery.Document, _ string) []string {
	var urls []string
	doc.Find("div.card").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		urls = append(urls, absolute(fullfactOrigin, href))
	})
	return urls
}

// ExtractClaimAndReview extracts one claim per claim/conclusion row
func (a *FullfactAdapter) ExtractClaimAndReview(ctx context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	shared := model.Claim{
		Source: a.Name(),
		URL:    pageURL,
	}

	shared.SetTitle(extract.Text(doc, "claim review title", extract.TextOf("article h1")))
	shared.ReviewAuthor = extract.Text(doc, "claim review author", fullfactCites, fullfactPublished(1))
	shared.Date = extract.Text(doc, "claim review date", extract.DateOf(fullfactPublished(0)))
	shared.SetBody(extract.Text(doc, "body", fullfactParagraphs))
	shared.Tags = extract.List(doc, "tags", fullfactBreadcrumbs)
	shared.ReferredLinks = extract.List(doc, "referred links",
		extract.LinksOf("article, section.related-factchecks", pageURL, fullfactShareLink),
	)

	claims, conclusions := fullfactRows(doc)
	ratings := make([]string, 0, len(conclusions))
	for _, conclusion := range conclusions {
		if model.IsPlaceholder(conclusion) {
			ratings = append(ratings, conclusion)
			continue
		}
		label, err := a.verdict.Classify(ctx, conclusion)
		if err != nil {
			a.log.Warn("Verdict classification failed", zap.String("url", pageURL), zap.Error(err))
			label = model.Failed("rating", err)
		}
		ratings = append(ratings, label)
	}

	built, truncated := extract.NewClaimBuilder(shared).Build(
		extract.Column{Set: (*model.Claim).SetClaim, Values: claims},
		extract.Column{Set: (*model.Claim).SetRating, Values: ratings},
	)
	if truncated {
		a.log.Warn("Found different amounts of claims and ratings",
			zap.String("url", pageURL),
			zap.Int("claims", len(claims)),
			zap.Int("ratings", len(ratings)),
		)
	}
	return built, nil
}

// fullfactRows returns the claim and conclusion of every two-paragraph
// row, or single placeholders when the page has none
func fullfactRows(doc *goquery.Document) (claims, conclusions []string) {
	doc.Find("article div.card-body-text").Each(func(_ int, row *goquery.Selection) {
		ps := row.Find("p")
		if ps.Length() != 2 {
			return
		}
		claims = append(claims, extract.CleanString(ps.Eq(0).Text()))
		conclusions = append(conclusions, extract.CleanString(ps.Eq(1).Text()))
	})
	if len(claims) == 0 {
		return []string{model.NotFound("claim")}, []string{model.NotFound("rating")}
	}
	return claims, conclusions
}

func fullfactCites(doc *goquery.Document) extract.Outcome[string] {
	var names []string
	doc.Find("article section.social-media cite").Each(func(_ int, c *goquery.Selection) {
		if name := extract.CleanString(c.Text()); name != "" {
			names = append(names, name)
		}
	})
	if len(names) == 0 {
		return extract.Missing[string]()
	}
	return extract.Found(strings.Join(names, ", "))
}

// fullfactPublished reads part i of "Published: 2 January 2024 | Jane Doe"
func fullfactPublished(i int) extract.Strategy[string] {
	return func(doc *goquery.Document) extract.Outcome[string] {
		sel := doc.Find("article div.published-at").First()
		if sel.Length() == 0 {
			return extract.Missing[string]()
		}
		parts := strings.Split(sel.Text(), "|")
		if i >= len(parts) {
			return extract.Missing[string]()
		}
		part := extract.CleanString(parts[i])
		if i == 0 {
			part = strings.TrimSpace(strings.TrimPrefix(part, "Published:"))
		}
		return extract.Found(part)
	}
}

func fullfactParagraphs(doc *goquery.Document) extract.Outcome[string] {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return extract.Missing[string]()
	}
	var parts []string
	article.Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.ParentsFiltered("script, style").Length() > 0 {
			return
		}
		parts = append(parts, p.Text())
	})
	return extract.Found(extract.CleanString(strings.Join(parts, " ")))
}

func fullfactBreadcrumbs(doc *goquery.Document) extract.Outcome[[]string] {
	nav := doc.Find("nav.breadcrumbs").First()
	if nav.Length() == 0 {
		return extract.Missing[[]string]()
	}
	var tags []string
	for _, part := range strings.Split(extract.CleanString(nav.Text()), "/") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return extract.Found(tags)
}

func fullfactShareLink(link string) bool {
	return strings.Contains(link, "facebook.com/sharer") || strings.Contains(link, "twitter.com/intent/tweet")
}
