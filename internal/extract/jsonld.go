package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one decoded JSON-LD object
type Node map[string]any

// JSONLD decodes every application/ld+json script in the document.
// Top-level arrays are flattened; scripts that fail to decode are reported
// in errs and skipped.
func JSONLD(doc *goquery.Document) (nodes []Node, errs []error) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			errs = append(errs, fmt.Errorf("ld+json script %d: %w", i, err))
			return
		}
		nodes = append(nodes, flatten(v)...)
	})
	return nodes, errs
}

func flatten(v any) []Node {
	switch t := v.(type) {
	case map[string]any:
		return []Node{Node(t)}
	case []any:
		var out []Node
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	}
	return nil
}

// Graph returns the @graph members of n, or nil
func (n Node) Graph() []Node {
	return flatten(n["@graph"])
}

// IsType reports whether n declares the given @type
func (n Node) IsType(name string) bool {
	switch t := n["@type"].(type) {
	case string:
		return t == name
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == name {
				return true
			}
		}
	}
	return false
}

// Object descends along path and returns the node found there. A list at
// any step resolves to its first element.
func (n Node) Object(path ...string) (Node, bool) {
	var cur any = map[string]any(n)
	for _, key := range path {
		m, ok := first(cur).(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	m, ok := first(cur).(map[string]any)
	return Node(m), ok
}

// Value returns the scalar at path rendered as a string. Numbers are
// formatted without a trailing ".0"; lists resolve to their first element.
func (n Node) Value(path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	parent, ok := n.Object(path[:len(path)-1]...)
	if !ok {
		return "", false
	}
	v, ok := parent[path[len(path)-1]]
	if !ok {
		return "", false
	}

	switch t := first(v).(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func first(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// ClaimReviews returns every schema.org ClaimReview node in the document,
// including members of @graph containers
func ClaimReviews(doc *goquery.Document) ([]Node, []error) {
	nodes, errs := JSONLD(doc)

	var reviews []Node
	for _, n := range nodes {
		if n.IsType("ClaimReview") {
			reviews = append(reviews, n)
		}
		for _, g := range n.Graph() {
			if g.IsType("ClaimReview") {
				reviews = append(reviews, g)
			}
		}
	}
	return reviews, errs
}

// FieldOf builds a strategy reading a string at path from the node picked
// by pick. A page without JSON-LD is missing; a page whose scripts are all
// broken is malformed.
func FieldOf(pick func(doc *goquery.Document) (Node, error), path ...string) Strategy[string] {
	return func(doc *goquery.Document) Outcome[string] {
		node, err := pick(doc)
		if err != nil {
			return Malformed[string](err)
		}
		if node == nil {
			return Missing[string]()
		}
		v, ok := node.Value(path...)
		if !ok {
			return Missing[string]()
		}
		return Found(CleanString(v))
	}
}

// FirstClaimReview picks the first ClaimReview node of the document
func FirstClaimReview(doc *goquery.Document) (Node, error) {
	reviews, errs := ClaimReviews(doc)
	if len(reviews) > 0 {
		return reviews[0], nil
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return nil, nil
}

// FirstGraphNode picks @graph[0] of the first JSON-LD object carrying a graph
func FirstGraphNode(doc *goquery.Document) (Node, error) {
	nodes, errs := JSONLD(doc)
	for _, n := range nodes {
		if g := n.Graph(); len(g) > 0 {
			return g[0], nil
		}
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return nil, nil
}
