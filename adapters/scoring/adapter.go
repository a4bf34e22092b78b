// Package scoring adapts the external score oracle to the analysis pipeline.
// The scoring formulas themselves live behind ports.ScoreOracle; this adapter
// owns only the call contract: per-method required arguments, column
// alignment, pseudocount sanity, and propagation of missing values.
package scoring

import (
	"context"

	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/apperr"
	"github.com/microbialman/igaseq/ports"
)

// Adapter validates score requests before delegating to the oracle and
// validates the returned matrix's shape after.
type Adapter struct {
	oracle ports.ScoreOracle
}

// NewAdapter wraps an oracle implementation.
func NewAdapter(oracle ports.ScoreOracle) *Adapter {
	return &Adapter{oracle: oracle}
}

// Score checks the request against the method's contract, calls the oracle,
// and verifies the result is aligned to the positive fraction's axes. Missing
// values in the oracle's output pass through untouched.
func (a *Adapter) Score(ctx context.Context, req ports.ScoreRequest) (*tables.ScoreMatrix, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	matrix, err := a.oracle.Score(ctx, req)
	if err != nil {
		return nil, apperr.Wrap(err, "score oracle failed")
	}
	if err := matrix.CheckAlignment(req.Pos.Subjects); err != nil {
		return nil, apperr.Wrap(apperr.ShapeMismatch("oracle returned a misaligned score matrix"), err.Error())
	}
	return matrix, nil
}

// ValidateRequest enforces the per-method argument contract. An absent
// required argument is a caller contract violation, rejected before the
// oracle is called.
func ValidateRequest(req ports.ScoreRequest) error {
	if req.Pos == nil {
		return apperr.New(apperr.CodeBadRequest, "positive fraction is required for every scoring method")
	}
	switch req.Method {
	case ports.MethodPalm:
		return requireNeg(req)
	case ports.MethodKau:
		if err := requireNeg(req); err != nil {
			return err
		}
		return requirePseudo(req)
	case ports.MethodPositiveProbability:
		if req.Pre == nil {
			return apperr.New(apperr.CodeBadRequest, "positive_probability requires the presort fraction")
		}
		if !tables.SameSubjects(req.Pre, req.Pos) {
			return apperr.ShapeMismatch("presort and positive fractions are not subject-aligned")
		}
		return requireSizes(req, req.PosSize != nil, false)
	case ports.MethodProbabilityRatio:
		if err := requireNeg(req); err != nil {
			return err
		}
		if err := requireSizes(req, req.PosSize != nil, true); err != nil {
			return err
		}
		return requirePseudo(req)
	default:
		return apperr.Newf(apperr.CodeBadRequest, "unknown scoring method %q", req.Method)
	}
}

func requireNeg(req ports.ScoreRequest) error {
	if req.Neg == nil {
		return apperr.Newf(apperr.CodeBadRequest, "%s requires the negative fraction", req.Method)
	}
	if !tables.SameSubjects(req.Pos, req.Neg) {
		return apperr.ShapeMismatch("positive and negative fractions are not subject-aligned")
	}
	return nil
}

func requirePseudo(req ports.ScoreRequest) error {
	if req.Pseudo <= 0 {
		return apperr.Newf(apperr.CodeBadRequest, "%s requires a positive pseudocount", req.Method)
	}
	return nil
}

func requireSizes(req ports.ScoreRequest, havePos, needNeg bool) error {
	if !havePos {
		return apperr.Newf(apperr.CodeBadRequest, "%s requires positive gate sizes", req.Method)
	}
	for _, subject := range req.Pos.Subjects {
		if _, ok := req.PosSize[subject]; !ok {
			return apperr.Newf(apperr.CodeBadRequest, "missing positive gate size for subject %s", subject)
		}
	}
	if needNeg {
		if req.NegSize == nil {
			return apperr.Newf(apperr.CodeBadRequest, "%s requires negative gate sizes", req.Method)
		}
		for _, subject := range req.Pos.Subjects {
			if _, ok := req.NegSize[subject]; !ok {
				return apperr.Newf(apperr.CodeBadRequest, "missing negative gate size for subject %s", subject)
			}
		}
	}
	return nil
}
