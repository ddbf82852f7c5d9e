// Package sink writes extracted claims to their output targets.
package sink

import (
	"context"
	"errors"

	"github.com/ppiankov/claimharvest/internal/model"
)

// Sink receives claims in emission order
type Sink interface {
	Write(ctx context.Context, claim model.Claim) error
	Close() error
}

// Multi fans every claim out to several sinks
type Multi []Sink

// Write writes to every sink and joins their errors
func (m Multi) Write(ctx context.Context, claim model.Claim) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, claim); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every claim
type Discard struct{}

func (Discard) Write(context.Context, model.Claim) error { return nil }
func (Discard) Close() error                             { return nil }
