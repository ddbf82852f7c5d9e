package model

import (
	"slices"
	"strings"
)

// ListDelimiter joins list-valued claim fields in flat records
const ListDelimiter = ":-:"

// Claim is one fact-check record extracted from a detail page
type Claim struct {
	Source        string `json:"source" bson:"source"`                 // Site identifier (e.g., "politifact")
	URL           string `json:"url" bson:"url"`                       // Canonical review URL, identity key
	Claim         string `json:"claim" bson:"claim"`                   // Text of the claim under review
	Title         string `json:"title" bson:"title"`                   // Title of the review page
	Body          string `json:"body" bson:"body"`                     // Review body text
	Date          string `json:"date" bson:"date"`                     // Review publish date (YYYY-MM-DD)
	DatePublished string `json:"date_published" bson:"date_published"` // Date the claim was made
	Author        string `json:"author" bson:"author"`                 // Claimer
	AuthorURL     string `json:"author_url" bson:"author_url"`
	ReviewAuthor  string `json:"review_author" bson:"review_author"`   // Fact-checker
	Rating        string `json:"rating" bson:"rating"`                 // Canonical verdict
	RatingValue   string `json:"rating_value" bson:"rating_value"`
	BestRating    string `json:"best_rating" bson:"best_rating"`
	WorstRating   string `json:"worst_rating" bson:"worst_rating"`
	SameAs        string `json:"same_as" bson:"same_as"`

	Tags          []string `json:"tags" bson:"tags"`
	ReferredLinks []string `json:"referred_links" bson:"referred_links"`
	RelatedLinks  []string `json:"related_links" bson:"related_links"`

	// Entity payloads are JSON documents produced by an annotator
	ClaimEntities   string `json:"claim_entities,omitempty" bson:"claim_entities,omitempty"`
	BodyEntities    string `json:"body_entities,omitempty" bson:"body_entities,omitempty"`
	KeywordEntities string `json:"keyword_entities,omitempty" bson:"keyword_entities,omitempty"`
	AuthorEntities  string `json:"author_entities,omitempty" bson:"author_entities,omitempty"`
}

// SetClaim sets the claim text
func (c *Claim) SetClaim(s string) { c.Claim = strings.TrimSpace(s) }

// SetTitle sets the review title
func (c *Claim) SetTitle(s string) { c.Title = strings.TrimSpace(s) }

// SetBody sets the review body
func (c *Claim) SetBody(s string) { c.Body = strings.TrimSpace(s) }

// SetRating stores a verdict label. Quotes are removed and anything after
// the first period is dropped ("False. The photo is old" becomes "False").
// Placeholders are stored untouched.
func (c *Claim) SetRating(s string) {
	if IsPlaceholder(s) {
		c.Rating = s
		return
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if i := strings.Index(s, "."); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	c.Rating = s
}

// SetRatingValue sets the numeric rating; empty input is ignored
func (c *Claim) SetRatingValue(s string) {
	if s != "" {
		c.RatingValue = strings.ReplaceAll(s, `"`, "")
	}
}

// SetBestRating sets the top of the rating scale; empty input is ignored
func (c *Claim) SetBestRating(s string) {
	if s != "" {
		c.BestRating = strings.ReplaceAll(s, `"`, "")
	}
}

// SetWorstRating sets the bottom of the rating scale; empty input is ignored
func (c *Claim) SetWorstRating(s string) {
	if s != "" {
		c.WorstRating = strings.ReplaceAll(s, `"`, "")
	}
}

// HasRating reports whether the claim carries a usable verdict.
// An INFO placeholder means the page had no rating at all.
func (c *Claim) HasRating() bool {
	r := strings.TrimSpace(c.Rating)
	return r != "" && !strings.HasPrefix(r, InfoPrefix)
}

// Clone returns a copy that shares no slices with c
func (c Claim) Clone() Claim {
	c.Tags = slices.Clone(c.Tags)
	c.ReferredLinks = slices.Clone(c.ReferredLinks)
	c.RelatedLinks = slices.Clone(c.RelatedLinks)
	return c
}
