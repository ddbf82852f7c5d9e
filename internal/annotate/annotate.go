package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/llm"
	"github.com/ppiankov/claimharvest/internal/model"
)

// MinScore drops weak entity links
const MinScore = 0.1

// Entity is one linked mention in a text
type Entity struct {
	EntityID   int      `json:"id"`
	Begin      int      `json:"begin"`
	End        int      `json:"end"`
	Title      string   `json:"entity"`
	Mention    string   `json:"text"`
	Score      float64  `json:"score"`
	Categories []string `json:"categories"`
}

// Annotator links entity mentions in text
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Entity, error)
}

// New builds the annotator selected by cfg.Provider. "none" yields nil.
func New(cfg model.AnnotatorConfig, llmCfg model.LLMConfig, log *zap.Logger) (Annotator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "service":
		return NewServiceAnnotator(cfg.URI, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	case "openai":
		p, err := llm.NewProvider(llm.ConfigFromModel("openai", llmCfg))
		if err != nil {
			return nil, fmt.Errorf("annotator provider: %w", err)
		}
		return NewLLMAnnotator(p), nil
	default:
		return nil, fmt.Errorf("unknown annotator provider: %s (supported: none, service, openai)", cfg.Provider)
	}
}

// Encode renders entities as the JSON stored on a claim
func Encode(entities []Entity) (string, error) {
	if entities == nil {
		entities = []Entity{}
	}
	for i := range entities {
		if entities[i].Categories == nil {
			entities[i].Categories = []string{}
		}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("encode entities: %w", err)
	}
	return string(data), nil
}

// Enricher fills the entity fields of claims
type Enricher struct {
	annotator Annotator
	log       *zap.Logger
}

// NewEnricher creates an enricher over annotator
func NewEnricher(annotator Annotator, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{annotator: annotator, log: log}
}

// Enrich annotates the claim text, body, tags and author of claim.
// Placeholders are not annotated; a failed annotation leaves its field
// empty.
func (e *Enricher) Enrich(ctx context.Context, claim *model.Claim) {
	claim.ClaimEntities = e.annotate(ctx, claim.URL, "claim", claim.Claim)
	claim.BodyEntities = e.annotate(ctx, claim.URL, "body", claim.Body)
	claim.KeywordEntities = e.annotate(ctx, claim.URL, "keywords", strings.Join(realValues(claim.Tags), ", "))
	claim.AuthorEntities = e.annotate(ctx, claim.URL, "author", claim.Author)
}

func (e *Enricher) annotate(ctx context.Context, url, field, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || model.IsPlaceholder(text) {
		return ""
	}

	entities, err := e.annotator.Annotate(ctx, text)
	if err != nil {
		e.log.Warn("Annotation failed", zap.String("url", url), zap.String("field", field), zap.Error(err))
		return ""
	}

	encoded, err := Encode(entities)
	if err != nil {
		e.log.Warn("Annotation failed", zap.String("url", url), zap.String("field", field), zap.Error(err))
		return ""
	}
	return encoded
}

func realValues(items []string) []string {
	var out []string
	for _, s := range items {
		if !model.IsPlaceholder(s) {
			out = append(out, s)
		}
	}
	return out
}
