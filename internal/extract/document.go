package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parse builds a document tree from a fetched page
func Parse(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
