package filter

import (
	"testing"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

func TestSweep(t *testing.T) {
	subjects := []core.SubjectID{"s1", "s2", "s3", "s4"}
	table := mkTable(t, subjects, map[core.Taxon][]float64{
		"expected_a": {0.4, 0.35, 0.3, 0.45},
		"expected_b": {0.3, 0.3, 0.25, 0.3},
		"stray":      {0.02, 0.03, 0.02, 0.01},
	}, []core.Taxon{"expected_a", "expected_b", "stray"})

	opts := Options{
		MinPrevalence: 3,
		ExpectedTaxa:  []core.Taxon{"expected_a", "expected_b"},
	}
	thresholds := []float64{0, 0.05, 0.5, 1}

	candidates := Sweep(table, thresholds, opts)
	if len(candidates) != len(thresholds) {
		t.Fatalf("expected one candidate per threshold, got %d", len(candidates))
	}

	for i, c := range candidates {
		if c.Threshold != thresholds[i] {
			t.Errorf("candidate %d: expected threshold %g, got %g", i, thresholds[i], c.Threshold)
		}
		if i > 0 {
			if c.TaxaRetained > candidates[i-1].TaxaRetained {
				t.Errorf("taxa retained grew from %d to %d as the threshold rose", candidates[i-1].TaxaRetained, c.TaxaRetained)
			}
			if c.MeanRetained > candidates[i-1].MeanRetained+1e-12 {
				t.Errorf("mean retained abundance grew from %g to %g as the threshold rose", candidates[i-1].MeanRetained, c.MeanRetained)
			}
		}
	}

	// At zero threshold everything survives and the stray taxon contributes
	// to the unexpected ratio.
	first := candidates[0]
	if first.TaxaRetained != 3 {
		t.Errorf("expected all 3 taxa at zero threshold, got %d", first.TaxaRetained)
	}
	if tables.IsNA(first.UnexpectedRatio) || first.UnexpectedRatio <= 0 {
		t.Errorf("expected positive unexpected ratio, got %g", first.UnexpectedRatio)
	}

	// Past 0.05 the stray taxon is gone and the ratio drops to zero.
	if candidates[1].UnexpectedRatio != 0 {
		t.Errorf("expected zero unexpected ratio at 0.05, got %g", candidates[1].UnexpectedRatio)
	}

	// When nothing allow-listed survives, the ratio is undefined.
	last := candidates[len(candidates)-1]
	if last.TaxaRetained != 0 {
		t.Errorf("expected no taxa at threshold 1, got %d", last.TaxaRetained)
	}
	if !tables.IsNA(last.UnexpectedRatio) {
		t.Errorf("expected NA ratio when no allow-listed abundance remains, got %g", last.UnexpectedRatio)
	}

	// The input table is never touched.
	if row, _ := table.Row("stray"); row[0] != 0.02 {
		t.Error("Sweep mutated its input")
	}
}
