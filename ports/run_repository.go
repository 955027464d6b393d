package ports

import (
	"context"

	"gojsm/domain/core"
	"gojsm/domain/run"
)

// RunRepository defines the interface for run storage operations
type RunRepository interface {
	// SaveRun stores a run with its causes and results in one transaction.
	SaveRun(ctx context.Context, r *run.Run) error
	// GetRun loads a full run. A missing run yields core.ErrRunNotFound.
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
	// ListRuns returns summaries, newest first.
	ListRuns(ctx context.Context, filters RunFilters) ([]run.Summary, error)
}

// RunFilters for querying runs
type RunFilters struct {
	Fingerprint core.Hash
	Limit       int
	Offset      int
}
