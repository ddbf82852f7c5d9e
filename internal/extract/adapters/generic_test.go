package adapters

import (
	"testing"

	"github.com/ppiankov/claimharvest/internal/rating"
)

func TestGeneric_ClaimReview(t *testing.T) {
	a := NewGenericAdapter(Deps{Ratings: rating.NewNormalizer()})
	page := `<html><head><title>Page</title>
	<script type="application/ld+json">[{"@type":"WebPage"},{"@type":"ClaimReview","claimReviewed":"Cats can fly","datePublished":"2023-05-01",
	"author":{"name":"Check Desk","url":"https://checks.example.org/about"},
	"itemReviewed":{"author":{"name":"A. Blogger","sameAs":"https://blog.example.com"}},
	"reviewRating":{"alternateName":"False","ratingValue":1,"bestRating":5,"worstRating":1}}]</script>
	</head><body><article><p>Cats cannot fly.</p></article></body></html>`

	claim := extractOne(t, a, page, "https://www.checks.example.org/cats")

	if claim.Source != "checks.example.org" {
		t.Errorf("Expected source from host, got %q", claim.Source)
	}
	if claim.Claim != "Cats can fly" || claim.Rating != "False" {
		t.Errorf("Unexpected claim/rating %q / %q", claim.Claim, claim.Rating)
	}
	if claim.Title != "Page" {
		t.Errorf("Expected title fallback to <title>, got %q", claim.Title)
	}
	if claim.ReviewAuthor != "Check Desk" || claim.Author != "A. Blogger" || claim.SameAs != "https://blog.example.com" {
		t.Errorf("Unexpected authors %q / %q / %q", claim.ReviewAuthor, claim.Author, claim.SameAs)
	}
	if claim.Date != "2023-05-01" || claim.RatingValue != "1" {
		t.Errorf("Unexpected date/value %q / %q", claim.Date, claim.RatingValue)
	}
	if claim.Body != "Cats cannot fly." {
		t.Errorf("Unexpected body %q", claim.Body)
	}
}

func TestGeneric_NoMarkup(t *testing.T) {
	a := NewGenericAdapter(Deps{})
	claim := extractOne(t, a, `<html><body><p>hello</p></body></html>`, "https://example.org/a")

	if claim.HasRating() {
		t.Errorf("Expected no rating without ClaimReview markup, got %q", claim.Rating)
	}
	if a.ListingSources() != nil {
		t.Error("Expected no listing sources")
	}
}
