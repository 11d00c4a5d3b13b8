package research

import (
	"context"
	"fmt"
)

// ProgressSink receives incremental output while a run is in flight:
// status lines, newly appended agent text, and citation annotations.
// Implementations must tolerate being called from a single goroutine only.
type ProgressSink interface {
	Info(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Citation(ctx context.Context, title, url string)
}

// NopSink discards all progress output.
type NopSink struct{}

func (NopSink) Info(context.Context, string)             {}
func (NopSink) Error(context.Context, string)            {}
func (NopSink) Citation(context.Context, string, string) {}

// MultiSink fans progress output out to every sink in order.
type MultiSink []ProgressSink

func (m MultiSink) Info(ctx context.Context, msg string) {
	for _, s := range m {
		s.Info(ctx, msg)
	}
}

func (m MultiSink) Error(ctx context.Context, msg string) {
	for _, s := range m {
		s.Error(ctx, msg)
	}
}

func (m MultiSink) Citation(ctx context.Context, title, url string) {
	for _, s := range m {
		s.Citation(ctx, title, url)
	}
}

// ProgressCache stores live job progress so it can be read out-of-band,
// e.g. by the management API while a run is still in flight.
type ProgressCache interface {
	Set(ctx context.Context, jobID, status, detail string) error
	Clear(ctx context.Context, jobID string) error
}

// CacheSink mirrors progress into a ProgressCache under a job ID.
type CacheSink struct {
	Cache ProgressCache
	JobID string
}

func (s CacheSink) Info(ctx context.Context, msg string) {
	_ = s.Cache.Set(ctx, s.JobID, "in_progress", msg)
}

func (s CacheSink) Error(ctx context.Context, msg string) {
	_ = s.Cache.Set(ctx, s.JobID, "failed", msg)
}

func (s CacheSink) Citation(ctx context.Context, title, url string) {
	_ = s.Cache.Set(ctx, s.JobID, "in_progress", fmt.Sprintf("URL Citation: [%s](%s)", title, url))
}
