package rating

import (
	"maps"
	"slices"
	"sync"

	"github.com/ppiankov/claimharvest/internal/model"
)

// Canonical verdict labels shared by several sites
const (
	True        = "True"
	MostlyTrue  = "Mostly True"
	HalfTrue    = "Half True"
	MostlyFalse = "Mostly False"
	False       = "False"
	PantsOnFire = "Pants on Fire"
	Mixture     = "Mixture"
	Misleading  = "Misleading"
	Other       = "Other"
)

// Table maps raw site labels to canonical labels. Keys are matched
// exactly as written.
type Table map[string]string

// Normalizer holds the label tables of every registered site
type Normalizer struct {
	mu      sync.RWMutex
	labels  map[string]Table
	numeric map[string]Table
}

// NewNormalizer creates an empty normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{
		labels:  make(map[string]Table),
		numeric: make(map[string]Table),
	}
}

// Register sets the label table for site, replacing any previous one
func (n *Normalizer) Register(site string, t Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.labels[site] = maps.Clone(t)
}

// RegisterNumeric sets the rating-value table for site
func (n *Normalizer) RegisterNumeric(site string, t Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.numeric[site] = maps.Clone(t)
}

// Normalize maps raw through the site's table. Unmapped labels, and sites
// without a table, pass through unchanged.
func (n *Normalizer) Normalize(site, raw string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if canonical, ok := n.labels[site][raw]; ok {
		return canonical
	}
	return raw
}

// FromValue maps a numeric rating value to a label when the site declares
// that value as a known boundary
func (n *Normalizer) FromValue(site, value string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	canonical, ok := n.numeric[site][value]
	return canonical, ok
}

// Resolve normalizes raw, falling back to the numeric value when the
// label is empty or a placeholder. If neither yields a label raw is
// returned as-is.
func (n *Normalizer) Resolve(site, raw, value string) string {
	if raw != "" && !model.IsPlaceholder(raw) {
		return n.Normalize(site, raw)
	}
	if canonical, ok := n.FromValue(site, value); ok {
		return canonical
	}
	return raw
}

// Sites lists, sorted, the sites with a label or numeric table
func (n *Normalizer) Sites() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	seen := make(map[string]bool)
	var sites []string
	for _, m := range []map[string]Table{n.labels, n.numeric} {
		for site := range m {
			if !seen[site] {
				seen[site] = true
				sites = append(sites, site)
			}
		}
	}
	slices.Sort(sites)
	return sites
}
