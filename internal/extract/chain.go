package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/claimharvest/internal/model"
)

// Strategy reads one field from a document using one known layout
type Strategy[T any] func(doc *goquery.Document) Outcome[T]

// Result is the outcome of running a whole chain
type Result[T any] struct {
	Value T
	Found bool
	// Index of the strategy that produced Value, or -1
	Index int
	// Err is set only when every strategy reported a malformed page
	Err error
}

// Evaluate runs strategies in order and stops at the first one that yields
// a non-empty value. Missing and malformed outcomes, as well as panics,
// move on to the next strategy.
func Evaluate[T any](doc *goquery.Document, empty func(T) bool, strategies ...Strategy[T]) Result[T] {
	var errs []string
	malformed := 0

	for i, s := range strategies {
		out := safeRun(s, doc)
		switch out.Status {
		case StatusFound:
			if !empty(out.Value) {
				return Result[T]{Value: out.Value, Found: true, Index: i}
			}
		case StatusMalformed:
			malformed++
			errs = append(errs, out.Err.Error())
		}
	}

	res := Result[T]{Index: -1}
	if len(strategies) > 0 && malformed == len(strategies) {
		res.Err = fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return res
}

func safeRun[T any](s Strategy[T], doc *goquery.Document) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Malformed[T](fmt.Errorf("panic: %v", r))
		}
	}()
	if doc == nil {
		return Missing[T]()
	}
	return s(doc)
}

// Text evaluates a chain for a string field. When no strategy yields a
// value the field's placeholder is returned. ERROR is returned only when
// every strategy reported a malformed structure. A single strategy that
// found nothing, or found only whitespace, outranks any number of
// malformed ones and the result is INFO.
func Text(doc *goquery.Document, field string, strategies ...Strategy[string]) string {
	res := Evaluate(doc, func(s string) bool { return strings.TrimSpace(s) == "" }, strategies...)
	if res.Found {
		return res.Value
	}
	if res.Err != nil {
		return model.Failed(field, res.Err)
	}
	return model.NotFound(field)
}

// List evaluates a chain for a list field. The placeholder, when needed,
// is returned as a single element.
func List(doc *goquery.Document, field string, strategies ...Strategy[[]string]) []string {
	res := Evaluate(doc, func(v []string) bool { return len(v) == 0 }, strategies...)
	if res.Found {
		return res.Value
	}
	if res.Err != nil {
		return []string{model.Failed(field, res.Err)}
	}
	return []string{model.NotFound(field)}
}

// TextOf reads the trimmed text of the first element matching selector
func TextOf(selector string) Strategy[string] {
	return func(doc *goquery.Document) Outcome[string] {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return Missing[string]()
		}
		return Found(CleanString(sel.Text()))
	}
}

// AttrOf reads an attribute of the first element matching selector
func AttrOf(selector, attr string) Strategy[string] {
	return func(doc *goquery.Document) Outcome[string] {
		v, ok := doc.Find(selector).First().Attr(attr)
		if !ok {
			return Missing[string]()
		}
		return Found(strings.TrimSpace(v))
	}
}

// Meta reads a <meta> tag by property or name
func Meta(key string) Strategy[string] {
	return func(doc *goquery.Document) Outcome[string] {
		sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
		v, ok := sel.Attr("content")
		if !ok {
			return Missing[string]()
		}
		return Found(strings.TrimSpace(v))
	}
}

// TextsOf reads the text of every element matching selector, skipping blanks
func TextsOf(selector string) Strategy[[]string] {
	return func(doc *goquery.Document) Outcome[[]string] {
		var out []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := CleanString(s.Text()); t != "" {
				out = append(out, t)
			}
		})
		if len(out) == 0 {
			return Missing[[]string]()
		}
		return Found(out)
	}
}

// Map transforms the value of a found outcome. An error from fn turns the
// outcome into a malformed one.
func Map[T, U any](s Strategy[T], fn func(T) (U, error)) Strategy[U] {
	return func(doc *goquery.Document) Outcome[U] {
		out := s(doc)
		switch out.Status {
		case StatusFound:
			v, err := fn(out.Value)
			if err != nil {
				return Malformed[U](err)
			}
			return Found(v)
		case StatusMalformed:
			return Malformed[U](out.Err)
		default:
			return Missing[U]()
		}
	}
}
