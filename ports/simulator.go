package ports

import (
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// SimRequest configures one synthetic IgA-Seq experiment. The simulator is a
// validation-only oracle: it exists so the comparison engine can be checked
// against known ground truth, and is never invoked on real data.
type SimRequest struct {
	NumSubjects int
	NumSpecies  int

	// SpeciesMeanBinding optionally fixes the per-species mean binding
	// value; when nil, means are drawn by the simulator.
	SpeciesMeanBinding []float64

	// HighThreshold and LowThreshold are the binding intensities above
	// which a bacterium sorts into the positive gate and below which it
	// sorts into the negative gate.
	HighThreshold float64
	LowThreshold  float64

	// GroupShift optionally shifts the binding mean of selected species in
	// the second half of the subjects, producing a true between-group
	// difference. Keys are species indices.
	GroupShift map[int]float64

	Seed int64
}

// SimResult is the simulated experiment plus its ground truth.
type SimResult struct {
	Fractions *tables.FractionSet

	// SpeciesMeanBinding is the true per-species mean binding value.
	SpeciesMeanBinding map[core.Taxon]float64

	// SampledBinding holds the per-subject sampled binding value for each
	// species, aligned to the fraction set's subject order.
	SampledBinding map[core.Taxon][]float64
}

// Simulator generates synthetic IgA-Seq datasets with known ground truth.
type Simulator interface {
	Simulate(req SimRequest) (*SimResult, error)
}
