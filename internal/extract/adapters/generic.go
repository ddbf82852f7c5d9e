package adapters

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
)

// GenericAdapter is the fallback adapter for unknown domains. It reads the
// schema.org ClaimReview markup most fact-checkers embed.
type GenericAdapter struct {
	ratings *rating.Normalizer
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter(deps Deps) *GenericAdapter {
	deps = deps.withDefaults()
	return &GenericAdapter{ratings: deps.Ratings}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(string) bool {
	return true
}

// ListingSources returns nothing; generic pages are supplied by the user
func (a *GenericAdapter) ListingSources() []Source {
	return nil
}

// ExtractURLs returns nothing, see ListingSources
func (a *GenericAdapter) ExtractURLs(*goquery.Document, string) []string {
	return nil
}

// ExtractClaimAndReview reads the first ClaimReview of the page
func (a *GenericAdapter) ExtractClaimAndReview(_ context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	review := extract.FirstClaimReview
	source := sourceName(pageURL)

	claim := model.Claim{
		Source: source,
		URL:    pageURL,
	}

	claim.SetTitle(extract.Text(doc, "claim review title",
		extract.FieldOf(review, "name"),
		extract.FieldOf(review, "headline"),
		extract.Meta("og:title"),
		extract.TextOf("title"),
	))
	claim.SetClaim(extract.Text(doc, "claim", extract.FieldOf(review, "claimReviewed")))
	claim.Date = extract.Text(doc, "claim review date", extract.DateOf(extract.FieldOf(review, "datePublished")))
	claim.ReviewAuthor = extract.Text(doc, "claim review author", extract.FieldOf(review, "author", "name"))
	claim.AuthorURL = extract.Text(doc, "claim review author url", extract.FieldOf(review, "author", "url"))
	claim.Author = extract.Text(doc, "claim author", extract.FieldOf(review, "itemReviewed", "author", "name"))
	claim.DatePublished = extract.Text(doc, "claim date", extract.DateOf(extract.FieldOf(review, "itemReviewed", "datePublished")))
	claim.SameAs = valueOrEmpty(doc, review, "itemReviewed", "author", "sameAs")

	claim.SetBody(extract.Text(doc, "body", extract.BodyOf("article"), extract.BodyOf("main"), extract.BodyOf("body")))
	claim.ReferredLinks = extract.List(doc, "referred links", extract.LinksOf("article", pageURL, nil), extract.LinksOf("main", pageURL, nil))
	claim.Tags = extract.List(doc, "tags",
		extract.Map(extract.Meta("keywords"), func(s string) ([]string, error) {
			var tags []string
			for _, t := range strings.Split(s, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			return tags, nil
		}),
	)

	value := valueOrEmpty(doc, review, "reviewRating", "ratingValue")
	claim.SetRatingValue(value)
	claim.SetBestRating(valueOrEmpty(doc, review, "reviewRating", "bestRating"))
	claim.SetWorstRating(valueOrEmpty(doc, review, "reviewRating", "worstRating"))

	raw := extract.Text(doc, "rating", extract.FieldOf(review, "reviewRating", "alternateName"))
	claim.SetRating(a.ratings.Resolve(source, raw, value))

	return []model.Claim{claim}, nil
}

// sourceName derives a source identifier from the page host
func sourceName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return "generic"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
