package verdict

import (
	"context"
	"strings"
	"unicode"

	"github.com/ppiankov/claimharvest/internal/rating"
)

// Classifier turns a fact-check conclusion into a canonical verdict
type Classifier interface {
	Classify(ctx context.Context, conclusion string) (string, error)
}

var (
	trueWords       = wordSet("correct", "right", "true", "evidence", "accurate", "exact")
	falseWords      = wordSet("incorrect", "false", "fake", "wrong", "inaccurate", "untrue")
	mixtureWords    = wordSet("uncertain", "ambiguous", "unclear", "unsure", "undetermined")
	oppositionWords = wordSet("but", "however")
	negationWords   = wordSet("no", "not", "neither", "nor", "never")
	mixWithNegation = wordSet("quite", "necessarily", "sure", "clear")
	auxiliaryVerbs  = wordSet("is", "was", "are", "were", "be", "do", "does", "did",
		"can", "could", "will", "would", "should", "may", "might", "must", "has", "have")
)

var contractions = strings.NewReplacer(
	"can't", "can not", "won't", "will not", "n't", " not",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Heuristic classifies conclusions with a fixed vocabulary. It reads the
// first sentence only and answers True, False, Mixture or Other.
type Heuristic struct{}

// NewHeuristic creates the vocabulary classifier
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify never fails
func (h *Heuristic) Classify(_ context.Context, conclusion string) (string, error) {
	return h.classify(conclusion), nil
}

func (h *Heuristic) classify(conclusion string) string {
	tokens := tokenize(firstSentence(conclusion))
	if len(tokens) == 0 {
		return rating.Other
	}

	if v := negated(tokens); v != rating.Other {
		return v
	}
	return direct(tokens)
}

// negated handles verdict words inside a negation scope: "not accurate"
// reads as False, "not entirely clear" as Mixture
func negated(tokens []string) string {
	var scope []string
	inScope := false
	for _, tok := range tokens {
		switch {
		case tok == "," || tok == ";":
			inScope = false
		case negationWords[tok]:
			inScope = true
		case inScope:
			scope = append(scope, tok)
		}
	}

	for i, w := range scope {
		if (trueWords[w] || falseWords[w]) && i+1 < len(scope) && hasOpposition(scope[i+1:]) {
			return rating.Mixture
		}
		if mixWithNegation[w] {
			return rating.Mixture
		}
		if trueWords[w] {
			return rating.False
		}
		if falseWords[w] {
			return rating.True
		}
	}
	return rating.Other
}

func direct(tokens []string) string {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok != "," && tok != ";" {
			words = append(words, tok)
		}
	}
	if len(words) == 0 {
		return rating.Other
	}

	if n := len(words); n >= 2 && words[n-1] == "not" && auxiliaryVerbs[words[n-2]] {
		return rating.False
	}

	for i, w := range words {
		if (trueWords[w] || falseWords[w]) && i+1 < len(words) && hasOpposition(words[i+1:]) {
			return rating.Mixture
		}
		if falseWords[w] {
			return rating.False
		}
		if trueWords[w] {
			return rating.True
		}
		if mixtureWords[w] {
			return rating.Mixture
		}
	}
	return rating.Other
}

func hasOpposition(words []string) bool {
	for _, w := range words {
		if oppositionWords[w] {
			return true
		}
	}
	return false
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i]
		}
	}
	return s
}

// tokenize lower-cases, expands contractions and splits on anything that
// is not a letter, keeping commas and semicolons as tokens
func tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	s = contractions.Replace(s)

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '\'':
			cur.WriteRune(r)
		case r == ',' || r == ';':
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}
