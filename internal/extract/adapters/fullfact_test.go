package adapters

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/ppiankov/claimharvest/internal/model"
	"github.com/ppiankov/claimharvest/internal/rating"
)

const fullfactPage = `<html><body>
<nav class="breadcrumbs">Health / Vaccines</nav>
<article>
	<h1>Claims about vaccine side effects</h1>
	<div class="published-at">Published: 2 January 2024 | Alex Writer</div>
	<div class="row no-gutters card-body-text"><p>Vaccines contain microchips.</p><p>Incorrect. There is no such technology.</p></div>
	<div class="row no-gutters card-body-text"><p>Side effects are common.</p><p>Correct. Mild side effects are common.</p></div>
	<div class="row no-gutters card-body-text"><p>Only one paragraph here.</p></div>
	<p>Body about <a href="https://www.nhs.uk/vaccines">the NHS</a>.</p>
	<a href="https://www.facebook.com/sharer/sharer.php?u=x">Share</a>
	<a href="https://twitter.com/intent/tweet?text=x">Tweet</a>
</article>
<section class="related-factchecks"><a href="/health/older-check/">Older</a></section>
</body></html>`

func TestFullfact_ListingSources(t *testing.T) {
	a := NewFullfactAdapter(Deps{})
	sources := a.ListingSources()
	if len(sources) != 7 {
		t.Fatalf("Expected 7 listing sequences, got %d", len(sources))
	}
	if got := sources[0].Format(2); got != "https://fullfact.org/latest/?page=2" {
		t.Errorf("Unexpected first listing URL %s", got)
	}
	if got := sources[6].Format(1); got != "https://fullfact.org/education/all?page=1" {
		t.Errorf("Unexpected last listing URL %s", got)
	}
}

func TestFullfact_ExtractURLs(t *testing.T) {
	a := NewFullfactAdapter(Deps{})
	doc := mustParse(t, `<div class="card"><a href="/health/a/">A</a><a href="/other/">x</a></div>
	<div class="card"><a href="https://fullfact.org/law/b/">B</a></div>
	<div class="card"><span>no link</span></div>`)

	expected := []string{"https://fullfact.org/health/a/", "https://fullfact.org/law/b/"}
	if got := a.ExtractURLs(doc, "https://fullfact.org/latest/?page=1"); !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestFullfact_MultiClaim(t *testing.T) {
	classifier := &stubVerdict{answers: map[string]string{
		"Incorrect. There is no such technology.": rating.False,
		"Correct. Mild side effects are common.":  rating.True,
	}}
	a := NewFullfactAdapter(Deps{Verdict: classifier})
	pageURL := "https://fullfact.org/health/vaccine-claims/"

	claims, err := a.ExtractClaimAndReview(context.Background(), mustParse(t, fullfactPage), pageURL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}

	if claims[0].Claim != "Vaccines contain microchips." || claims[0].Rating != rating.False {
		t.Errorf("Unexpected first claim %q / %q", claims[0].Claim, claims[0].Rating)
	}
	if claims[1].Claim != "Side effects are common." || claims[1].Rating != rating.True {
		t.Errorf("Unexpected second claim %q / %q", claims[1].Claim, claims[1].Rating)
	}

	for i, c := range claims {
		if c.URL != pageURL || c.Source != "fullfact" {
			t.Errorf("claim %d: expected shared url and source, got %s %s", i, c.URL, c.Source)
		}
		if c.Title != "Claims about vaccine side effects" {
			t.Errorf("claim %d: unexpected title %q", i, c.Title)
		}
		if c.Date != "2024-01-02" {
			t.Errorf("claim %d: unexpected date %q", i, c.Date)
		}
		if c.ReviewAuthor != "Alex Writer" {
			t.Errorf("claim %d: unexpected review author %q", i, c.ReviewAuthor)
		}
		if !slices.Equal(c.Tags, []string{"Health", "Vaccines"}) {
			t.Errorf("claim %d: unexpected tags %v", i, c.Tags)
		}
	}

	links := claims[0].ReferredLinks
	expectedLinks := []string{"https://fullfact.org/health/older-check/", "https://www.nhs.uk/vaccines"}
	if !slices.Equal(links, expectedLinks) {
		t.Errorf("Expected %v, got %v", expectedLinks, links)
	}

	// Claims must not share list storage
	claims[0].Tags[0] = "changed"
	if claims[1].Tags[0] != "Health" {
		t.Error("Expected claims to own their tag slices")
	}
}

func TestFullfact_CitesBeatPublishedAuthor(t *testing.T) {
	a := NewFullfactAdapter(Deps{Verdict: &stubVerdict{}})
	page := strings.Replace(fullfactPage, "<h1>", `<section class="social-media"><div><div><ul><li><span><cite>Pat One</cite></span></li><li><span><cite>Lee Two</cite></span></li></ul></div></div></section><h1>`, 1)

	claims, err := a.ExtractClaimAndReview(context.Background(), mustParse(t, page), "https://fullfact.org/x/")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if claims[0].ReviewAuthor != "Pat One, Lee Two" {
		t.Errorf("Expected cited authors, got %q", claims[0].ReviewAuthor)
	}
}

func TestFullfact_NoRows(t *testing.T) {
	a := NewFullfactAdapter(Deps{Verdict: &stubVerdict{}})
	claims, err := a.ExtractClaimAndReview(context.Background(), mustParse(t, `<article><h1>Opinion</h1><p>Text</p></article>`), "https://fullfact.org/blog/")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("Expected a single placeholder claim, got %d", len(claims))
	}
	if claims[0].HasRating() {
		t.Errorf("Expected no usable rating, got %q", claims[0].Rating)
	}
	if claims[0].Claim != model.NotFound("claim") {
		t.Errorf("Expected claim placeholder, got %q", claims[0].Claim)
	}
}

func TestFullfact_ClassifierError(t *testing.T) {
	a := NewFullfactAdapter(Deps{Verdict: &stubVerdict{err: errClassifier}})
	claims, err := a.ExtractClaimAndReview(context.Background(), mustParse(t, fullfactPage), "https://fullfact.org/x/")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, c := range claims {
		if !strings.HasPrefix(c.Rating, model.ErrorPrefix) {
			t.Errorf("Expected ERROR placeholder rating, got %q", c.Rating)
		}
	}
}
