package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stats counts what happened to the URLs of one run
type Stats struct {
	RunID    string
	Site     string
	Started  time.Time
	Finished time.Time

	Listed   int // detail URLs produced by the paginator
	Cached   int // URLs answered from the claim cache
	Fetched  int // URLs extracted from a fetched page
	Skipped  int // fetch failures and 404s
	Rejected int // claims dropped for lack of a rating
	Emitted  int // claims written to the sink
	Errors   int // extraction panics and sink failures
}

// Add accumulates o into s
func (s *Stats) Add(o *Stats) {
	if o == nil {
		return
	}
	s.Listed += o.Listed
	s.Cached += o.Cached
	s.Fetched += o.Fetched
	s.Skipped += o.Skipped
	s.Rejected += o.Rejected
	s.Emitted += o.Emitted
	s.Errors += o.Errors
	if s.Started.IsZero() || (!o.Started.IsZero() && o.Started.Before(s.Started)) {
		s.Started = o.Started
	}
	if o.Finished.After(s.Finished) {
		s.Finished = o.Finished
	}
}

// Duration is the wall time of the run
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// String renders a one-line summary
func (s *Stats) String() string {
	return fmt.Sprintf("listed=%d cached=%d fetched=%d skipped=%d rejected=%d emitted=%d errors=%d in %s",
		s.Listed, s.Cached, s.Fetched, s.Skipped, s.Rejected, s.Emitted, s.Errors, s.Duration().Round(time.Millisecond))
}

// MarshalLogObject lets Stats be logged with zap.Object
func (s *Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("run_id", s.RunID)
	if s.Site != "" {
		enc.AddString("site", s.Site)
	}
	enc.AddInt("listed", s.Listed)
	enc.AddInt("cached", s.Cached)
	enc.AddInt("fetched", s.Fetched)
	enc.AddInt("skipped", s.Skipped)
	enc.AddInt("rejected", s.Rejected)
	enc.AddInt("emitted", s.Emitted)
	enc.AddInt("errors", s.Errors)
	enc.AddDuration("duration", s.Duration())
	return nil
}

var _ zapcore.ObjectMarshaler = (*Stats)(nil)

func logStats(log *zap.Logger, msg string, s *Stats) {
	log.Info(msg, zap.Object("stats", s))
}
