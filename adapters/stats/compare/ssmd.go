// Package compare implements the group-comparison engine: exact permutation
// testing for tiny two-group designs, two-way factorial ANOVA for balanced
// multi-level designs, the SSMD effect size both share, and Benjamini-Hochberg
// correction across the taxon set.
package compare

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/microbialman/igaseq/domain/tables"
)

// SSMD returns the strictly standardized mean difference between two score
// vectors: (mean(a) - mean(b)) / sqrt(var(a) + var(b)), sample variances.
// Sign convention: positive when group a scores higher; a and b keep the
// caller's comparison order.
//
// Edge cases return NA rather than a degenerate value: fewer than two
// observations on either side, a pooled vector that is entirely zero (a flat
// zero vector carries no directional information), or zero pooled spread.
func SSMD(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return tables.NA()
	}
	allZero := true
	for _, v := range a {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		for _, v := range b {
			if v != 0 {
				allZero = false
				break
			}
		}
	}
	if allZero {
		return tables.NA()
	}

	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)

	denom := math.Sqrt(varA + varB)
	if denom == 0 || math.IsNaN(denom) {
		return tables.NA()
	}
	return (meanA - meanB) / denom
}
