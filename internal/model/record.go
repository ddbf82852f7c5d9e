package model

import "strings"

// Flat record keys. The names follow the schema.org ClaimReview vocabulary
// and are shared by the claim cache hashes and the CSV columns.
const (
	FieldRatingValue     = "rating_ratingValue"
	FieldWorstRating     = "rating_worstRating"
	FieldBestRating      = "rating_bestRating"
	FieldRating          = "rating_alternateName"
	FieldAuthor          = "creativeWork_author_name"
	FieldDatePublished   = "creativeWork_datePublished"
	FieldSameAs          = "creativeWork_author_sameAs"
	FieldSourceName      = "claimReview_author_name"
	FieldAuthorURL       = "claimReview_author_url"
	FieldURL             = "claimReview_url"
	FieldClaim           = "claimReview_claimReviewed"
	FieldDate            = "claimReview_datePublished"
	FieldSource          = "claimReview_source"
	FieldReviewAuthor    = "claimReview_author"
	FieldBody            = "extra_body"
	FieldReferredLinks   = "extra_refered_links"
	FieldTitle           = "extra_title"
	FieldTags            = "extra_tags"
	FieldClaimEntities   = "extra_entities_claimReview_claimReviewed"
	FieldBodyEntities    = "extra_entities_body"
	FieldKeywordEntities = "extra_entities_keywords"
	FieldAuthorEntities  = "extra_entities_author"
	FieldRelatedLinks    = "related_links"
)

// RecordFields lists the flat record keys in column order
var RecordFields = []string{
	FieldRatingValue, FieldWorstRating, FieldBestRating, FieldRating,
	FieldAuthor, FieldDatePublished, FieldSameAs, FieldSourceName,
	FieldAuthorURL, FieldURL, FieldClaim, FieldDate, FieldSource,
	FieldReviewAuthor, FieldBody, FieldReferredLinks, FieldTitle, FieldTags,
	FieldClaimEntities, FieldBodyEntities, FieldKeywordEntities,
	FieldAuthorEntities, FieldRelatedLinks,
}

// Record flattens the claim into field-name/string pairs.
// List fields are joined with ListDelimiter.
func (c Claim) Record() map[string]string {
	return map[string]string{
		FieldRatingValue:     c.RatingValue,
		FieldWorstRating:     c.WorstRating,
		FieldBestRating:      c.BestRating,
		FieldRating:          c.Rating,
		FieldAuthor:          c.Author,
		FieldDatePublished:   c.DatePublished,
		FieldSameAs:          c.SameAs,
		FieldSourceName:      c.Source,
		FieldAuthorURL:       c.AuthorURL,
		FieldURL:             c.URL,
		FieldClaim:           c.Claim,
		FieldDate:            c.Date,
		FieldSource:          c.Source,
		FieldReviewAuthor:    c.ReviewAuthor,
		FieldBody:            c.Body,
		FieldReferredLinks:   JoinList(c.ReferredLinks),
		FieldTitle:           c.Title,
		FieldTags:            JoinList(c.Tags),
		FieldClaimEntities:   c.ClaimEntities,
		FieldBodyEntities:    c.BodyEntities,
		FieldKeywordEntities: c.KeywordEntities,
		FieldAuthorEntities:  c.AuthorEntities,
		FieldRelatedLinks:    JoinList(c.RelatedLinks),
	}
}

// Row returns the record values in RecordFields order
func (c Claim) Row() []string {
	rec := c.Record()
	row := make([]string, len(RecordFields))
	for i, field := range RecordFields {
		row[i] = rec[field]
	}
	return row
}

// ClaimFromRecord rebuilds a claim from its flat record
func ClaimFromRecord(rec map[string]string) Claim {
	source := rec[FieldSourceName]
	if source == "" {
		source = rec[FieldSource]
	}

	return Claim{
		Source:          source,
		URL:             rec[FieldURL],
		Claim:           rec[FieldClaim],
		Title:           rec[FieldTitle],
		Body:            rec[FieldBody],
		Date:            rec[FieldDate],
		DatePublished:   rec[FieldDatePublished],
		Author:          rec[FieldAuthor],
		AuthorURL:       rec[FieldAuthorURL],
		ReviewAuthor:    rec[FieldReviewAuthor],
		Rating:          rec[FieldRating],
		RatingValue:     rec[FieldRatingValue],
		BestRating:      rec[FieldBestRating],
		WorstRating:     rec[FieldWorstRating],
		SameAs:          rec[FieldSameAs],
		Tags:            SplitList(rec[FieldTags]),
		ReferredLinks:   SplitList(rec[FieldReferredLinks]),
		RelatedLinks:    SplitList(rec[FieldRelatedLinks]),
		ClaimEntities:   rec[FieldClaimEntities],
		BodyEntities:    rec[FieldBodyEntities],
		KeywordEntities: rec[FieldKeywordEntities],
		AuthorEntities:  rec[FieldAuthorEntities],
	}
}

// JoinList joins list items with ListDelimiter
func JoinList(items []string) string {
	return strings.Join(items, ListDelimiter)
}

// SplitList is the inverse of JoinList. An empty string yields nil.
// Items that themselves contain ListDelimiter do not survive the round trip.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ListDelimiter)
}
