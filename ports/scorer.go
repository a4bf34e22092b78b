// Package ports declares the interfaces the analysis core depends on. The
// scoring and simulation oracles are external collaborators: the core supplies
// correctly shaped inputs and consumes their outputs, it never reimplements
// their formulas.
package ports

import (
	"context"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// ScoreMethod names one of the four fixed-contract scoring methods.
type ScoreMethod string

const (
	MethodPalm                ScoreMethod = "palm"
	MethodKau                 ScoreMethod = "kau"
	MethodPositiveProbability ScoreMethod = "positive_probability"
	MethodProbabilityRatio    ScoreMethod = "probability_ratio"
)

// ScoreRequest carries the arguments for one oracle call. Which fields are
// required depends on Method:
//
//	palm                 Pos, Neg
//	kau                  Pos, Neg, Pseudo
//	positive_probability Pos, Pre, PosSize
//	probability_ratio    Pos, Neg, PosSize, NegSize, Pseudo
//
// An absent required argument is a caller contract violation and is rejected
// before the oracle is called.
type ScoreRequest struct {
	Method ScoreMethod

	Pos *tables.AbundanceTable
	Neg *tables.AbundanceTable
	Pre *tables.AbundanceTable

	PosSize map[core.SubjectID]float64
	NegSize map[core.SubjectID]float64

	// Pseudo is the additive pseudocount applied before ratio or log
	// transforms. It must be positive and should sit below the minimum
	// nonzero observed abundance.
	Pseudo float64
}

// ScoreOracle converts abundance tables and gate sizes into a taxon-by-subject
// score matrix. Implementations may return NA for taxon/subject pairs with
// zero abundance across all informing fractions; callers propagate NA, they
// never substitute zero.
type ScoreOracle interface {
	Score(ctx context.Context, req ScoreRequest) (*tables.ScoreMatrix, error)
}
