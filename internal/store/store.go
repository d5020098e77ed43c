package store

import (
	"context"

	"github.com/me/kernsim/pkg/model"
)

// Store is the run journal: an append-only record of replayed scenarios.
// Runs are never loaded back into a kernel.
type Store interface {
	// CreateRun inserts the run and its full trace atomically.
	CreateRun(ctx context.Context, run *model.Run) error
	// GetRun returns the run with its trace, or nil if it does not exist.
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns run headers (without traces), newest first, and the total count.
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	DeleteRun(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
