package extract

import "github.com/ppiankov/claimharvest/internal/model"

// Column is one per-claim field of a multi-claim page
type Column struct {
	Set    func(*model.Claim, string)
	Values []string
}

// ClaimBuilder produces the claims of one detail page from the fields the
// claims share and the per-claim columns
type ClaimBuilder struct {
	shared model.Claim
}

// NewClaimBuilder captures the shared fields of a page
func NewClaimBuilder(shared model.Claim) *ClaimBuilder {
	return &ClaimBuilder{shared: shared.Clone()}
}

// Build returns one claim per row of cols. When the columns differ in
// length every column is cut to the shortest one and truncated is true;
// trailing rows of the longer columns are dropped.
func (b *ClaimBuilder) Build(cols ...Column) (claims []model.Claim, truncated bool) {
	if len(cols) == 0 {
		return []model.Claim{b.shared.Clone()}, false
	}

	n := len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != n {
			truncated = true
		}
		n = min(n, len(c.Values))
	}

	claims = make([]model.Claim, 0, n)
	for i := 0; i < n; i++ {
		claim := b.shared.Clone()
		for _, c := range cols {
			c.Set(&claim, c.Values[i])
		}
		claims = append(claims, claim)
	}
	return claims, truncated
}
