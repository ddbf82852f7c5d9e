package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceAnnotator calls an entity-linking HTTP service
type ServiceAnnotator struct {
	uri        string
	httpClient *http.Client
}

type serviceRequest struct {
	Text string `json:"text"`
}

type serviceResponse struct {
	Annotations []serviceAnnotation `json:"annotations"`
}

type serviceAnnotation struct {
	ID         int      `json:"id"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Title      string   `json:"title"`
	Spot       string   `json:"spot"`
	Rho        float64  `json:"rho"`
	Categories []string `json:"dbpedia_categories,omitempty"`
}

type serviceError struct {
	Error string `json:"error"`
}

// NewServiceAnnotator creates an annotator posting to uri
func NewServiceAnnotator(uri string, timeout time.Duration) *ServiceAnnotator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ServiceAnnotator{
		uri:        uri,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Annotate posts text to the service and returns the entities scoring
// above MinScore
func (a *ServiceAnnotator) Annotate(ctx context.Context, text string) ([]Entity, error) {
	body, err := json.Marshal(serviceRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr serviceError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("annotator error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("annotator error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp serviceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	entities := make([]Entity, 0, len(resp.Annotations))
	for _, ann := range resp.Annotations {
		if ann.Rho <= MinScore {
			continue
		}
		entities = append(entities, Entity{
			EntityID:   ann.ID,
			Begin:      ann.Start,
			End:        ann.End,
			Title:      ann.Title,
			Mention:    ann.Spot,
			Score:      ann.Rho,
			Categories: ann.Categories,
		})
	}
	return entities, nil
}
