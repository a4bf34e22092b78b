// Package app orchestrates the analysis pipeline: filter the fraction set,
// score it through the oracle, compare groups per taxon, aggregate, and
// optionally persist. The services hold no cross-call state; every run is
// constructed from its inputs and discarded.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/microbialman/igaseq/adapters/scoring"
	"github.com/microbialman/igaseq/adapters/stats/aggregate"
	statscompare "github.com/microbialman/igaseq/adapters/stats/compare"
	"github.com/microbialman/igaseq/adapters/stats/filter"
	"github.com/microbialman/igaseq/domain/run"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/apperr"
	"github.com/microbialman/igaseq/internal/logging"
	"github.com/microbialman/igaseq/ports"
)

// AnalysisRequest carries everything one analysis invocation needs.
type AnalysisRequest struct {
	Fractions *tables.FractionSet
	Metadata  *tables.SampleMetadata

	Filter filter.Options

	Method ports.ScoreMethod
	Pseudo float64

	Comparison statscompare.Comparison
	Engine     statscompare.Options
	Alpha      float64
}

// AnalysisService runs the full differential binding analysis.
type AnalysisService struct {
	scorer *scoring.Adapter
	repo   ports.ResultRepository // nil disables persistence
}

// NewAnalysisService wires the service. repo may be nil.
func NewAnalysisService(oracle ports.ScoreOracle, repo ports.ResultRepository) *AnalysisService {
	return &AnalysisService{
		scorer: scoring.NewAdapter(oracle),
		repo:   repo,
	}
}

// Run executes one analysis. The returned table holds one row per taxon that
// survived filtering; taxa the engine could not test appear with NA results.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*run.Run, aggregate.Table, error) {
	start := time.Now()
	manifest := run.New(string(req.Method), req.Comparison.Strategy, req.Alpha)
	manifest.Threshold = req.Filter.Threshold
	manifest.MinPrevalence = req.Filter.MinPrevalence

	// Raw per-fraction tables must each be a relative-abundance simplex
	// before filtering; afterwards they may sum below one.
	for _, t := range []*tables.AbundanceTable{req.Fractions.Pre, req.Fractions.Pos, req.Fractions.Neg} {
		if err := t.ValidateUnitSum(tables.UnitSumTolerance); err != nil {
			return nil, aggregate.Table{}, apperr.Wrap(err, "raw fraction table is not a relative-abundance simplex")
		}
	}
	manifest.TaxaIn = req.Fractions.Pos.NumTaxa()

	filtered, err := filter.Apply(req.Fractions, req.Filter)
	if err != nil {
		return nil, aggregate.Table{}, apperr.Wrap(err, "filtering fraction set")
	}
	manifest.NumSubjects = filtered.Pos.NumSubjects()
	logging.Debug("filtered fraction set",
		zap.Int("taxa_in", manifest.TaxaIn),
		zap.Int("taxa_kept", filtered.Pos.NumTaxa()),
		zap.Float64("threshold", req.Filter.Threshold))

	if err := req.Metadata.CheckAlignment(filtered.Pos.Subjects); err != nil {
		return nil, aggregate.Table{}, apperr.Wrap(apperr.ShapeMismatch("metadata does not match fraction subjects"), err.Error())
	}

	scores, err := s.scorer.Score(ctx, ports.ScoreRequest{
		Method:  req.Method,
		Pos:     filtered.Pos,
		Neg:     filtered.Neg,
		Pre:     filtered.Pre,
		PosSize: filtered.PosSize,
		NegSize: filtered.NegSize,
		Pseudo:  req.Pseudo,
	})
	if err != nil {
		return nil, aggregate.Table{}, err
	}

	engine := statscompare.NewEngine(req.Engine)
	results, err := engine.Run(ctx, scores, req.Metadata, req.Comparison)
	if err != nil {
		return nil, aggregate.Table{}, err
	}

	table := aggregate.Build(results, req.Alpha)
	for _, r := range table.Rows {
		if r.Testable {
			manifest.TaxaTested++
		}
	}
	manifest.Elapsed = time.Since(start)

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, manifest, table.Rows); err != nil {
			// Persistence is auxiliary; the computed table is still
			// returned alongside the error context.
			logging.Warn("persisting analysis run failed", zap.String("run", manifest.ID.String()), zap.Error(err))
		}
	}

	logging.Info("analysis complete",
		zap.String("run", manifest.ID.String()),
		zap.String("method", manifest.Method),
		zap.Int("taxa_tested", manifest.TaxaTested),
		zap.Int("significant", len(table.Significant())),
		zap.Duration("elapsed", manifest.Elapsed))
	return manifest, table, nil
}
