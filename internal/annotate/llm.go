package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimharvest/internal/llm"
)

const annotatePrompt = `List the named entities mentioned in the text below.
Respond with a JSON object {"entities": [...]} where each entity has:
"entity" (canonical Wikipedia title), "text" (the mention as written),
"score" (confidence 0-1) and "categories" (list of strings).

Text:
%s`

// LLMAnnotator asks a language model for entity mentions. Offsets are
// recovered by locating each mention in the text.
type LLMAnnotator struct {
	provider llm.Provider
}

// NewLLMAnnotator creates an annotator over provider
func NewLLMAnnotator(provider llm.Provider) *LLMAnnotator {
	return &LLMAnnotator{provider: provider}
}

// Annotate asks the model for entities in text
func (a *LLMAnnotator) Annotate(ctx context.Context, text string) ([]Entity, error) {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Prompt: fmt.Sprintf(annotatePrompt, text),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Entities []Entity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Text)), &out); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}

	entities := make([]Entity, 0, len(out.Entities))
	from := 0
	for i, e := range out.Entities {
		if e.Mention == "" || e.Score <= MinScore {
			continue
		}
		e.EntityID = i + 1
		e.Begin, e.End = -1, -1
		if idx := strings.Index(text[from:], e.Mention); idx >= 0 {
			e.Begin = from + idx
			e.End = e.Begin + len(e.Mention)
			from = e.End
		} else if idx := strings.Index(text, e.Mention); idx >= 0 {
			e.Begin = idx
			e.End = idx + len(e.Mention)
		}
		entities = append(entities, e)
	}
	return entities, nil
}
