package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/claimharvest/internal/extract"
	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
)

const afpOrigin = "https://factcheck.afp.com"

// AFPFactcheckAdapter extracts fact checks from factcheck.afp.com using the
// ClaimReview graph embedded in every article
type AFPFactcheckAdapter struct {
	ratings *rating.Normalizer
}

// NewAFPFactcheckAdapter creates the AFP adapter and registers its numeric
// rating fallback
func NewAFPFactcheckAdapter(deps Deps) *AFPFactcheckAdapter {
	deps = deps.withDefaults()
	deps.Ratings.RegisterNumeric("afpfactcheck", rating.Table{"1": rating.False})
	return &AFPFactcheckAdapter{ratings: deps.Ratings}
}

// Name returns the adapter name
func (a *AFPFactcheckAdapter) Name() string {
	return "afpfactcheck"
}

// CanHandle checks for factcheck.afp.com URLs
func (a *AFPFactcheckAdapter) CanHandle(rawURL string) bool {
	return hostIs(rawURL, "factcheck.afp.com")
}

// ListingSources returns the fact-check listing
func (a *AFPFactcheckAdapter) ListingSources() []Source {
	return []Source{{
		Format: func(page int) string { return fmt.Sprintf("%s/list?page=%d", afpOrigin, page) },
	}}
}

// ExtractURLs extracts the first link of every card
func (a *AFPFactcheckAdapter) ExtractURLs(doc *goquery.Document, _ string) []string {
	var urls []string
	doc.Find("div.card").Each(func(_ int, card *goquery.Selection) {
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			urls = append(urls, absolute(afpOrigin, href))
		}
	})
	return urls
}

// ExtractClaimAndReview extracts the single claim of an article
func (a *AFPFactcheckAdapter) ExtractClaimAndReview(_ context.Context, doc *goquery.Document, pageURL string) ([]model.Claim, error) {
	graph := extract.FirstGraphNode
	claim := model.Claim{
		Source: a.Name(),
		URL:    pageURL,
	}

	claim.SetTitle(extract.Text(doc, "claim review title", extract.FieldOf(graph, "name")))
	claim.Date = extract.Text(doc, "claim review date",
		extract.DateOf(extract.Map(extract.FieldOf(graph, "datePublished"), func(s string) (string, error) {
			day, _, _ := strings.Cut(s, " ")
			return day, nil
		})),
	)
	claim.DatePublished = extract.Text(doc, "claim date", extract.DateOf(extract.FieldOf(graph, "itemReviewed", "datePublished")))
	claim.Author = extract.Text(doc, "claim author", extract.FieldOf(graph, "itemReviewed", "author", "name"))
	claim.SetClaim(extract.Text(doc, "claim", extract.FieldOf(graph, "claimReviewed")))

	claim.ReviewAuthor = extract.Text(doc, "claim review author",
		extract.Map(extract.TextOf("span.meta-author"), func(s string) (string, error) {
			var names []string
			for _, name := range strings.Split(s, ",") {
				if name = strings.TrimSpace(name); name != "" {
					names = append(names, name)
				}
			}
			return strings.Join(names, model.ListDelimiter), nil
		}),
	)
	claim.AuthorURL = extract.Text(doc, "claim review author url", afpAuthorURLs)

	claim.SetBody(extract.Text(doc, "body", extract.BodyOf("div.article-entry")))
	claim.Tags = extract.List(doc, "tags", extract.TextsOf("div.tags a"))
	claim.ReferredLinks = extract.List(doc, "referred links", extract.LinksOf("div.article-entry", pageURL, nil))

	value := valueOrEmpty(doc, graph, "reviewRating", "ratingValue")
	claim.SetRatingValue(value)
	claim.SetBestRating(valueOrEmpty(doc, graph, "reviewRating", "bestRating"))
	claim.SetWorstRating(valueOrEmpty(doc, graph, "reviewRating", "worstRating"))

	raw := extract.Text(doc, "rating",
		extract.Map(extract.FieldOf(graph, "reviewRating", "alternateName"), func(s string) (string, error) {
			// Casers keep state, one per call
			return cases.Title(language.English).String(s), nil
		}),
	)
	claim.SetRating(a.ratings.Resolve(a.Name(), raw, value))

	return []model.Claim{claim}, nil
}

func afpAuthorURLs(doc *goquery.Document) extract.Outcome[string] {
	var urls []string
	doc.Find("span.meta-author a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		urls = append(urls, absolute(afpOrigin, href))
	})
	if len(urls) == 0 {
		return extract.Missing[string]()
	}
	return extract.Found(strings.Join(urls, model.ListDelimiter))
}

// valueOrEmpty reads an optional JSON-LD scalar without a placeholder
func valueOrEmpty(doc *goquery.Document, pick func(*goquery.Document) (extract.Node, error), path ...string) string {
	res := extract.Evaluate(doc, func(s string) bool { return s == "" }, extract.FieldOf(pick, path...))
	return res.Value
}
