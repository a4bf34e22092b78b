package testkit

import (
	"context"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/ports"
)

// StubOracle is a deterministic stand-in for the external score oracle. Its
// scores are monotone in the positive-to-negative abundance balance, which is
// all the engine tests need; it does not reproduce the published scoring
// formulas. Taxon/subject pairs with zero abundance across all informing
// fractions score NA, matching the oracle contract.
type StubOracle struct{}

// NewStubOracle creates the stand-in oracle.
func NewStubOracle() *StubOracle { return &StubOracle{} }

var _ ports.ScoreOracle = (*StubOracle)(nil)

// Score computes the stand-in score matrix for the request. Assumes the
// request already passed the scoring adapter's validation.
func (o *StubOracle) Score(_ context.Context, req ports.ScoreRequest) (*tables.ScoreMatrix, error) {
	matrix := tables.NewScoreMatrix(req.Pos.Subjects)
	for _, taxon := range req.Pos.Taxa {
		posRow := req.Pos.Values[taxon]
		row := make([]float64, len(posRow))
		for i, p := range posRow {
			subject := req.Pos.Subjects[i]
			switch req.Method {
			case ports.MethodPositiveProbability:
				var pre float64
				if preRow, ok := req.Pre.Row(taxon); ok {
					pre = preRow[req.Pre.SubjectIndex(subject)]
				}
				if pre == 0 {
					row[i] = tables.NA()
					continue
				}
				score := p * req.PosSize[subject] / pre
				if score > 1 {
					score = 1
				}
				row[i] = score
			case ports.MethodProbabilityRatio:
				n := negValue(req, taxon, i)
				if p == 0 && n == 0 {
					row[i] = tables.NA()
					continue
				}
				row[i] = (p*req.PosSize[subject] + req.Pseudo) / (n*req.NegSize[subject] + req.Pseudo)
			default: // palm, kau
				n := negValue(req, taxon, i)
				if p == 0 && n == 0 {
					row[i] = tables.NA()
					continue
				}
				row[i] = (p - n) / (p + n + req.Pseudo)
			}
		}
		matrix.SetRow(taxon, row)
	}
	return matrix, nil
}

func negValue(req ports.ScoreRequest, taxon core.Taxon, col int) float64 {
	if req.Neg == nil {
		return 0
	}
	if row, ok := req.Neg.Values[taxon]; ok {
		return row[col]
	}
	return 0
}
