package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/model"
)

// EUFactcheckAdapter extracts fact checks from eufactcheck.eu, where the
// verdict is the prefix of the page title ("Mostly true: ...")
type EUFactcheckAdapter struct{}

// NewEUFactcheckAdapter creates the eufactcheck adapter
func NewEUFactcheckAdapter(_ Deps) *EUFactcheckAdapter {
	return &EUFactcheckAdapter{}
}

// Name returns the adapter name
func (a *EUFactcheckAdapter) Name() string {
	return "eufactcheck"
}

// CanHandle checks for eufactcheck.eu URLs
func (a *EUFactcheckAdapter) CanHandle(rawURL string) bool {
	return hostIs(rawURL, "eufactcheck.eu")
}

// ListingSources returns page 1, then pages 2..N bounded by PageCount
func (a *EUFactcheckAdapter) ListingSources() []Source {
	return []Source{{
		Static: []string{"https://eufactcheck.eu/page/1/"},
		Format: func(page int) string { return fmt.Sprintf("https://eufactcheck.eu/page/%d/", page) },
	}}
}

// PageCount reads the last page number from the paginator, whose final
// link is "next"
func (a *EUFactcheckAdapter) PageCount(doc *goquery.Document) (int, error) {
	links := doc.Find("div.paginator a")
	if links.Length() < 2 {
		return 0, fmt.Errorf("paginator has %d links", links.Length())
	}
	n, err := strconv.Atoi(strings.TrimSpace(links.Eq(links.Length() - 2).Text()))
	if err != nil {
		return 0, fmt.Errorf("parse page count: %w", err)
	}
	return n, nil
}

// ExtractURLs extracts article links, skipping blog posts
func (a *EUFactcheckAdapter) ExtractURLs(doc *goquery.Document, _ string) []string {
	return hrefs(doc, "a.post-thumbnail-rollover", "", func(u string) bool {
		return strings.Contains(u, "blogpost")
	})
}

// ExtractClaimAndReview extracts the single claim of an article
func (a *EUFactcheckAdapter) ExtractClaimAndReview(_ context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	claim := model.Claim{
		Source: a.Name(),
		URL:    pageURL,
	}

	heading := extract.Text(doc, "claim review title", extract.TextOf("div.page-title-head h1"))
	verdict, title := splitVerdictTitle(heading)
	claim.SetTitle(title)
	claim.SetClaim(title)
	claim.SetRating(verdict)

	claim.Date = extract.Text(doc, "claim review date",
		extract.Map(extract.AttrOf("time.entry-date", "datetime"), func(dt string) (string, error) {
			day, _, _ := strings.Cut(dt, "T")
			if day == "" {
				return "", fmt.Errorf("empty datetime")
			}
			return day, nil
		}),
	)

	claim.SetBody(extract.Text(doc, "body", extract.BodyOf("div.entry-content")))
	claim.ReferredLinks = extract.List(doc, "referred links", extract.LinksOf("div.entry-content", pageURL, nil))

	claim.ReviewAuthor = extract.Text(doc, "claim review author",
		extract.Map(extract.TextOf("span.fn"), func(s string) (string, error) {
			name, _, _ := strings.Cut(s, ", ")
			return name, nil
		}),
	)
	claim.Tags = extract.List(doc, "tags", extract.TextsOf("div.entry-tags a"), extract.TextsOf("div.entry-tags"))

	return []model.Claim{claim}, nil
}

// splitVerdictTitle splits "Verdict: title". A heading without a separator
// is all title and yields a missing rating; a placeholder heading is
// carried over to both parts.
func splitVerdictTitle(heading string) (verdict, title string) {
	if model.IsPlaceholder(heading) {
		return strings.Replace(heading, "claim review title", "rating", 1), heading
	}
	for _, sep := range []string{":", "–"} {
		if before, after, ok := strings.Cut(heading, sep); ok {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}
	return model.NotFound("rating"), heading
}
