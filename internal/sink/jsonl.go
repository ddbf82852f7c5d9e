package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ppiankov/claimharvest/internal/model"
)

// JSONLSink writes one JSON document per claim per line
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   io.Writer
}

// NewJSONLSink writes to w
func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{enc: enc, w: w}
}

// CreateJSONL creates (or truncates) path and returns a sink writing to it
func CreateJSONL(path string) (*JSONLSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return NewJSONLSink(f), nil
}

// Write encodes claim as a single line
func (s *JSONLSink) Write(_ context.Context, claim model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(claim); err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}
	return nil
}

// Close closes the writer when it is closable
func (s *JSONLSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
