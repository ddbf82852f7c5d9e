package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/ppiankov/claimharvest/internal/model"
)

// CSVSink writes claims as rows of the flat record, header first
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink writes to w. The header row is written immediately.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	if err := s.w.Write(model.RecordFields); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	s.w.Flush()
	return s, s.w.Error()
}

// CreateCSV creates (or truncates) path and returns a sink writing to it
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	s, err := NewCSVSink(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Write appends one row and flushes, so partial runs leave usable output
func (s *CSVSink) Write(_ context.Context, claim model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(claim.Row()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying writer when it is closable
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// ReadCSVURLs returns the claimReview_url column of a previous output file
func ReadCSVURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := slices.Index(header, model.FieldURL)
	if col < 0 {
		return nil, fmt.Errorf("%s: no %s column", path, model.FieldURL)
	}

	var urls []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col < len(row) && row[col] != "" {
			urls = append(urls, row[col])
		}
	}
	return urls, nil
}
