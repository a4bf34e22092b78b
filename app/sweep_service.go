package app

import (
	"go.uber.org/zap"

	"github.com/microbialman/igaseq/adapters/stats/filter"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/logging"
)

// SweepService reports retention diagnostics across candidate thresholds so a
// caller can pick a threshold by inspection. It never picks one itself.
type SweepService struct{}

// NewSweepService creates a sweep service.
func NewSweepService() *SweepService { return &SweepService{} }

// Run sweeps the candidate thresholds over one fraction table.
func (s *SweepService) Run(table *tables.AbundanceTable, thresholds []float64, opts filter.Options) []filter.Candidate {
	candidates := filter.Sweep(table, thresholds, opts)
	logging.Debug("threshold sweep complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("taxa_in", table.NumTaxa()))
	return candidates
}
