// Package compare defines the per-taxon comparison outcome types produced by
// the group-comparison engine. "Untestable" is a first-class outcome: every
// taxon submitted to the engine appears in the output with either numeric
// results or explicit NA, never silently dropped.
package compare

import (
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// Strategy selects how score distributions are compared across groups.
type Strategy string

const (
	// StrategyFactorial runs a two-way ANOVA of score on covariate,
	// condition and their interaction. Suited to balanced multi-level
	// designs.
	StrategyFactorial Strategy = "factorial"
	// StrategyPermutation runs an exact two-group permutation test over
	// every distinct label assignment. Suited to tiny two-group designs.
	StrategyPermutation Strategy = "permutation"
)

// UntestableReason explains why a taxon could not be tested.
type UntestableReason string

const (
	ReasonNone                UntestableReason = ""
	ReasonInsufficientSamples UntestableReason = "insufficient_samples"
	ReasonUnbalancedDesign    UntestableReason = "unbalanced_design"
	ReasonEnumerationOverflow UntestableReason = "enumeration_overflow"
	ReasonDegenerateStatistic UntestableReason = "degenerate_statistic"
)

// StratumEffect is a standardized mean difference between the two condition
// groups within one covariate level. Stratum is empty for unstratified
// two-group comparisons. SSMD is NA when either side has fewer than two
// observations or the pooled values are all zero.
type StratumEffect struct {
	Stratum string
	SSMD    float64
}

// Result is the per-taxon comparison record. PValue carries the permutation
// p-value; PCondition and PInteraction carry the factorial p-values. Fields
// that do not apply to the chosen strategy, and all p-values of untestable
// taxa, hold NA.
type Result struct {
	Taxon    core.Taxon
	Strategy Strategy

	Testable bool
	Reason   UntestableReason

	PValue       float64
	PAdjusted    float64
	PCondition   float64
	PInteraction float64

	Effects []StratumEffect

	Significant bool
}

// Untestable builds the NA-filled record for a taxon that failed a pre-check.
func Untestable(taxon core.Taxon, strategy Strategy, reason UntestableReason) Result {
	return Result{
		Taxon:        taxon,
		Strategy:     strategy,
		Testable:     false,
		Reason:       reason,
		PValue:       tables.NA(),
		PAdjusted:    tables.NA(),
		PCondition:   tables.NA(),
		PInteraction: tables.NA(),
	}
}

// Effect returns the SSMD for a stratum, or NA if that stratum is absent.
func (r Result) Effect(stratum string) float64 {
	for _, e := range r.Effects {
		if e.Stratum == stratum {
			return e.SSMD
		}
	}
	return tables.NA()
}
