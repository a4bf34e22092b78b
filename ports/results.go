package ports

import (
	"context"

	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/run"
)

// ResultRepository persists analysis runs and their per-taxon results so
// reports can be re-rendered without recomputation.
type ResultRepository interface {
	SaveRun(ctx context.Context, r *run.Run, results []compare.Result) error
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
	GetResults(ctx context.Context, id core.RunID) ([]compare.Result, error)
	ListRuns(ctx context.Context, limit int) ([]*run.Run, error)
}
