package filter

import (
	"github.com/montanaflynn/stats"

	"github.com/microbialman/igaseq/domain/tables"
)

// Candidate summarizes the effect of one candidate threshold. The sweep feeds
// a human decision: the caller inspects the candidates and picks a threshold,
// the sweep itself decides nothing.
type Candidate struct {
	Threshold float64

	// TaxaRetained is the number of taxa surviving the filter at this
	// threshold.
	TaxaRetained int

	// MeanRetained is the mean, over subjects, of total abundance kept.
	MeanRetained float64

	// UnexpectedRatio is total abundance of taxa outside the allow-list
	// over total abundance of allow-listed taxa, after filtering. NA when
	// no allow-listed abundance remains.
	UnexpectedRatio float64
}

// Sweep applies the filter at each candidate threshold and reports retention
// diagnostics per candidate. Pure reporting: the input table and options are
// never mutated.
func Sweep(t *tables.AbundanceTable, thresholds []float64, opts Options) []Candidate {
	expected := opts.expected()
	out := make([]Candidate, 0, len(thresholds))
	for _, threshold := range thresholds {
		o := opts
		o.Threshold = threshold
		filtered := ApplyTable(t, o)

		meanRetained := 0.0
		if totals := filtered.SubjectTotals(); len(totals) > 0 {
			meanRetained, _ = stats.Mean(totals)
		}

		var expectedSum, unexpectedSum float64
		for _, taxon := range filtered.Taxa {
			rowSum, _ := stats.Sum(filtered.Values[taxon])
			if _, ok := expected[taxon]; ok {
				expectedSum += rowSum
			} else {
				unexpectedSum += rowSum
			}
		}
		ratio := tables.NA()
		if expectedSum > 0 {
			ratio = unexpectedSum / expectedSum
		}

		out = append(out, Candidate{
			Threshold:       threshold,
			TaxaRetained:    filtered.NumTaxa(),
			MeanRetained:    meanRetained,
			UnexpectedRatio: ratio,
		})
	}
	return out
}
