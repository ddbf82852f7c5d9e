package verdict

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/llm"
	"github.com/ppiankov/claimharvest/internal/rating"
)

// Taxonomy is the label set the LLM classifier may answer with
var Taxonomy = []string{
	rating.True,
	rating.MostlyTrue,
	rating.HalfTrue,
	rating.MostlyFalse,
	rating.False,
	rating.Mixture,
	rating.Misleading,
	rating.Other,
}

const systemPrompt = `You label fact-check conclusions. Answer with exactly one label from the allowed list and nothing else.`

// LLMClassifier asks a language model for the verdict. Answers outside
// Taxonomy, and provider failures, fall back to the heuristic.
type LLMClassifier struct {
	provider llm.Provider
	fallback *Heuristic
	log      *zap.Logger
}

// NewLLMClassifier creates a classifier over provider
func NewLLMClassifier(provider llm.Provider, log *zap.Logger) *LLMClassifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMClassifier{provider: provider, fallback: NewHeuristic(), log: log}
}

// Classify returns the model's label for conclusion
func (c *LLMClassifier) Classify(ctx context.Context, conclusion string) (string, error) {
	if strings.TrimSpace(conclusion) == "" {
		return rating.Other, nil
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildPrompt(conclusion),
		MaxTokens: 10,
	})
	if err != nil {
		c.log.Warn("Verdict classification failed, using heuristic", zap.Error(err))
		return c.fallback.classify(conclusion), nil
	}

	if label, ok := canonical(resp.Text); ok {
		return label, nil
	}
	c.log.Debug("Verdict outside taxonomy, using heuristic", zap.String("answer", resp.Text))
	return c.fallback.classify(conclusion), nil
}

// BuildPrompt constructs the classification prompt
func BuildPrompt(conclusion string) string {
	return fmt.Sprintf("Allowed labels: %s\n\nConclusion:\n%s\n\nLabel:",
		strings.Join(Taxonomy, ", "), conclusion)
}

func canonical(answer string) (string, bool) {
	answer = strings.Trim(strings.TrimSpace(answer), `."'`)
	for _, label := range Taxonomy {
		if strings.EqualFold(answer, label) {
			return label, true
		}
	}
	return "", false
}

// New builds the classifier selected by cfg.Provider ("heuristic" or "openai")
func New(cfg llm.Config, log *zap.Logger) (Classifier, error) {
	p, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("verdict provider: %w", err)
	}
	if p == nil {
		return NewHeuristic(), nil
	}
	return NewLLMClassifier(p, log), nil
}
