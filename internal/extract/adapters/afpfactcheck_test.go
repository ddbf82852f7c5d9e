package adapters

import (
	"slices"
	"strings"
	"testing"

	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
)

const afpPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[{
	"@type":"ClaimReview",
	"name":"Photo does not show flooded airport",
	"datePublished":"2024-02-10 14:32",
	"claimReviewed":"Photo shows a flooded airport in Dubai",
	"itemReviewed":{"@type":"Claim","datePublished":"2024-02-08","author":{"@type":"Organization","name":["Social media users"]}},
	"reviewRating":{"@type":"Rating","alternateName":"missing context","ratingValue":2,"bestRating":5,"worstRating":1}
}]}
</script></head><body>
<span class="meta-author"><a href="/author/ana">Ana Reporter</a>, <a href="/author/ben">Ben Editor</a></span>
<div class="article-entry clearfix"><p>The image is from 2019 <a href="https://example.org/source">source</a>.</p></div>
<div class="tags"><a href="/tags/weather">Weather</a><a href="/tags/uae">UAE</a></div>
</body></html>`

func TestAFPFactcheck_ExtractURLs(t *testing.T) {
	a := NewAFPFactcheckAdapter(Deps{})
	doc := mustParse(t, `<div class="card"><a href="/doc.afp.com.1">1</a></div><div class="card"><a href="/doc.afp.com.2">2</a></div>`)

	expected := []string{"https://factcheck.afp.com/doc.afp.com.1", "https://factcheck.afp.com/doc.afp.com.2"}
	if got := a.ExtractURLs(doc, ""); !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if got := a.ListingSources()[0].Format(4); got != "https://factcheck.afp.com/list?page=4" {
		t.Errorf("Unexpected listing URL %s", got)
	}
}

func TestAFPFactcheck_ExtractClaimAndReview(t *testing.T) {
	a := NewAFPFactcheckAdapter(Deps{})
	claim := extractOne(t, a, afpPage, "https://factcheck.afp.com/doc.afp.com.1")

	checks := map[string][2]string{
		"title":         {claim.Title, "Photo does not show flooded airport"},
		"date":          {claim.Date, "2024-02-10"},
		"claim date":    {claim.DatePublished, "2024-02-08"},
		"claim":         {claim.Claim, "Photo shows a flooded airport in Dubai"},
		"claim author":  {claim.Author, "Social media users"},
		"rating":        {claim.Rating, "Missing Context"},
		"rating value":  {claim.RatingValue, "2"},
		"best rating":   {claim.BestRating, "5"},
		"worst rating":  {claim.WorstRating, "1"},
		"review author": {claim.ReviewAuthor, "Ana Reporter" + model.ListDelimiter + "Ben Editor"},
		"author url":    {claim.AuthorURL, "https://factcheck.afp.com/author/ana" + model.ListDelimiter + "https://factcheck.afp.com/author/ben"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("Expected %s %q, got %q", field, c[1], c[0])
		}
	}
	if !slices.Equal(claim.Tags, []string{"Weather", "UAE"}) {
		t.Errorf("Unexpected tags %v", claim.Tags)
	}
	if !strings.HasPrefix(claim.Body, "The image is from 2019") {
		t.Errorf("Unexpected body %q", claim.Body)
	}
}

func TestAFPFactcheck_NumericFallback(t *testing.T) {
	a := NewAFPFactcheckAdapter(Deps{})
	page := strings.Replace(afpPage, `"alternateName":"missing context","ratingValue":2`, `"ratingValue":"1"`, 1)
	claim := extractOne(t, a, page, "https://factcheck.afp.com/doc.afp.com.1")

	if claim.Rating != rating.False {
		t.Errorf("Expected numeric fallback to %s, got %q", rating.False, claim.Rating)
	}
}

func TestAFPFactcheck_BrokenJSONLD(t *testing.T) {
	a := NewAFPFactcheckAdapter(Deps{})
	page := `<html><head><script type="application/ld+json">{"@graph": [</script></head><body></body></html>`
	claim := extractOne(t, a, page, "https://factcheck.afp.com/doc.afp.com.1")

	if !strings.HasPrefix(claim.Title, model.ErrorPrefix) {
		t.Errorf("Expected ERROR title placeholder, got %q", claim.Title)
	}
	if !strings.HasPrefix(claim.Rating, model.ErrorPrefix) {
		t.Errorf("Expected ERROR rating placeholder, got %q", claim.Rating)
	}
}
