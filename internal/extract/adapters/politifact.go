package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
)

const politifactOrigin = "https://www.politifact.com"

// Rating images are named after the Truth-O-Meter level
var politifactRatings = rating.Table{
	"true":        rating.True,
	"mostly-true": rating.MostlyTrue,
	"half-true":   rating.HalfTrue,
	"barely-true": rating.MostlyFalse,
	"false":       rating.False,
	"pants-fire":  rating.PantsOnFire,
}

// PolitifactAdapter extracts Truth-O-Meter fact checks from politifact.com
type PolitifactAdapter struct {
	ratings *rating.Normalizer
}

// NewPolitifactAdapter creates the politifact adapter and registers its rating table
func NewPolitifactAdapter(deps Deps) *PolitifactAdapter {
	deps = deps.withDefaults()
	deps.Ratings.Register("politifact", politifactRatings)
	return &PolitifactAdapter{ratings: deps.Ratings}
}

// Name returns the adapter name
func (a *PolitifactAdapter) Name() string {
	return "politifact"
}

// CanHandle checks for politifact.com URLs
func (a *PolitifactAdapter) CanHandle(rawURL string) bool {
	return hostIs(rawURL, "politifact.com")
}

// ListingSources returns the fact-check listing
func (a *PolitifactAdapter) ListingSources() []Source {
	return []Source{{
		Format: func(page int) string { return fmt.Sprintf("%s/factchecks/?page=%d", politifactOrigin, page) },
	}}
}

// ExtractURLs extracts statement links from a listing page
func (a *PolitifactAdapter) ExtractURLs(doc *goquery.Document, _ string) []string {
	return hrefs(doc, "article.m-statement div.m-statement__quote a", politifactOrigin, nil)
}

// ExtractClaimAndReview extracts the single claim of a statement page
func (a *PolitifactAdapter) ExtractClaimAndReview(_ context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	claim := model.Claim{
		Source: a.Name(),
		URL:    pageURL,
	}

	claim.SetTitle(extract.Text(doc, "claim review title", extract.TextOf("h2.c-title")))
	claim.ReviewAuthor = extract.Text(doc, "claim review author", extract.TextOf("div.m-author__content a"))
	claim.AuthorURL = extract.Text(doc, "claim review author url",
		extract.Map(extract.AttrOf("div.m-author__content a", "href"), func(href string) (string, error) {
			return absolute(politifactOrigin, href), nil
		}),
	)

	// Older pages print the date next to the author, newer ones only
	// carry it in the canonical URL
	claim.Date = extract.Text(doc, "claim review date",
		extract.DateOf(extract.TextOf("span.m-author__date")),
		extract.Map(extract.Meta("og:url"), politifactURLDate),
	)

	claim.SetBody(extract.Text(doc, "body", extract.BodyOf("article.m-textblock", "div.factbox", "section.o-pick")))
	claim.Tags = extract.List(doc, "tags", extract.TextsOf("ul.m-list a"))
	claim.ReferredLinks = extract.List(doc, "referred links", extract.LinksOf("article.m-textblock", pageURL, nil))

	claim.SetClaim(extract.Text(doc, "claim", extract.TextOf("div.m-statement__quote")))
	claim.Author = extract.Text(doc, "claim author", extract.TextOf("a.m-statement__name"))
	claim.DatePublished = extract.Text(doc, "claim date",
		extract.Map(extract.TextOf("div.m-statement__meta"), politifactStatedOn),
	)

	raw := extract.Text(doc, "rating", extract.AttrOf("div.m-statement__body div.c-image picture img.c-image__original", "alt"))
	claim.SetRating(a.ratings.Normalize(a.Name(), extract.CleanString(raw)))

	return []model.Claim{claim}, nil
}

// politifactURLDate reads the date out of /factchecks/2024/jan/02/... URLs
func politifactURLDate(pageURL string) (string, error) {
	_, path, ok := strings.Cut(pageURL, "/factchecks/")
	if !ok {
		return "", fmt.Errorf("no date in %q", pageURL)
	}
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("no date in %q", pageURL)
	}
	t, err := time.Parse("2006/Jan/02", strings.Join(parts[:3], "/"))
	if err != nil {
		return "", fmt.Errorf("parse url date: %w", err)
	}
	return t.Format(model.DateLayout), nil
}

// politifactStatedOn reads "stated on January 2, 2024 in a speech:"
func politifactStatedOn(meta string) (string, error) {
	if _, after, ok := strings.Cut(meta, "stated"); ok {
		meta = after
	}
	if _, after, ok := strings.Cut(meta, " on "); ok {
		meta = after
	}
	if before, _, ok := strings.Cut(meta, " in "); ok {
		meta = before
	}
	return extract.NormalizeDate(strings.TrimSuffix(strings.TrimSpace(meta), ":"))
}
