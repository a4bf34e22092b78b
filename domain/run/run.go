// Package run carries the manifest recorded for each analysis invocation.
package run

import (
	"time"

	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
)

// Run is the audit record of one analysis invocation: what was compared, with
// which method and parameters, over how much data, and how long it took.
type Run struct {
	ID        core.RunID       `json:"id" db:"id"`
	CreatedAt core.Timestamp   `json:"created_at"`
	Method    string           `json:"method" db:"method"`
	Strategy  compare.Strategy `json:"strategy" db:"strategy"`
	Alpha     float64          `json:"alpha" db:"alpha"`

	// Filter parameters as applied, kept for exact reproduction.
	Threshold     float64 `json:"threshold" db:"threshold"`
	MinPrevalence int     `json:"min_prevalence" db:"min_prevalence"`

	TaxaIn      int           `json:"taxa_in" db:"taxa_in"`
	TaxaTested  int           `json:"taxa_tested" db:"taxa_tested"`
	NumSubjects int           `json:"num_subjects" db:"num_subjects"`
	Elapsed     time.Duration `json:"elapsed"`
}

// New creates a manifest with a fresh time-ordered identifier.
func New(method string, strategy compare.Strategy, alpha float64) *Run {
	return &Run{
		ID:        core.RunID(core.NewID()),
		CreatedAt: core.Now(),
		Method:    method,
		Strategy:  strategy,
		Alpha:     alpha,
	}
}
