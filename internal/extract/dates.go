package extract

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/ppiankov/claimharvest/internal/model"
)

// NormalizeDate parses a free-form date and formats it as YYYY-MM-DD
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.Format(model.DateLayout), nil
}

// DateOf wraps a string strategy so its value is normalized as a date.
// Unparseable values count as malformed.
func DateOf(s Strategy[string]) Strategy[string] {
	return Map(s, NormalizeDate)
}
