package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/apperr"
	"github.com/microbialman/igaseq/internal/testkit"
	"github.com/microbialman/igaseq/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTable(t *testing.T, subjects []core.SubjectID, rows map[core.Taxon][]float64) *tables.AbundanceTable {
	t.Helper()
	table := tables.NewAbundanceTable(subjects)
	for taxon, row := range rows {
		require.NoError(t, table.SetRow(taxon, row))
	}
	return table
}

func validRequest(t *testing.T, method ports.ScoreMethod) ports.ScoreRequest {
	t.Helper()
	subjects := []core.SubjectID{"s1", "s2", "s3"}
	sizes := func(v float64) map[core.SubjectID]float64 {
		return map[core.SubjectID]float64{"s1": v, "s2": v, "s3": v}
	}
	return ports.ScoreRequest{
		Method:  method,
		Pos:     fixtureTable(t, subjects, map[core.Taxon][]float64{"a": {0.6, 0.5, 0.4}}),
		Neg:     fixtureTable(t, subjects, map[core.Taxon][]float64{"a": {0.2, 0.3, 0.4}}),
		Pre:     fixtureTable(t, subjects, map[core.Taxon][]float64{"a": {0.4, 0.4, 0.4}}),
		PosSize: sizes(0.3),
		NegSize: sizes(0.5),
		Pseudo:  1e-6,
	}
}

func TestValidateRequest_MethodContracts(t *testing.T) {
	tests := []struct {
		name   string
		method ports.ScoreMethod
		mutate func(*ports.ScoreRequest)
		wantOK bool
	}{
		{name: "palm complete", method: ports.MethodPalm, wantOK: true},
		{name: "kau complete", method: ports.MethodKau, wantOK: true},
		{name: "positive_probability complete", method: ports.MethodPositiveProbability, wantOK: true},
		{name: "probability_ratio complete", method: ports.MethodProbabilityRatio, wantOK: true},
		{
			name:   "palm needs the negative fraction",
			method: ports.MethodPalm,
			mutate: func(r *ports.ScoreRequest) { r.Neg = nil },
		},
		{
			name:   "kau needs a positive pseudocount",
			method: ports.MethodKau,
			mutate: func(r *ports.ScoreRequest) { r.Pseudo = 0 },
		},
		{
			name:   "positive_probability needs the presort fraction",
			method: ports.MethodPositiveProbability,
			mutate: func(r *ports.ScoreRequest) { r.Pre = nil },
		},
		{
			name:   "positive_probability needs gate sizes",
			method: ports.MethodPositiveProbability,
			mutate: func(r *ports.ScoreRequest) { r.PosSize = nil },
		},
		{
			name:   "gate sizes must cover every subject",
			method: ports.MethodPositiveProbability,
			mutate: func(r *ports.ScoreRequest) { delete(r.PosSize, "s2") },
		},
		{
			name:   "probability_ratio needs negative gate sizes",
			method: ports.MethodProbabilityRatio,
			mutate: func(r *ports.ScoreRequest) { r.NegSize = nil },
		},
		{
			name:   "probability_ratio needs a positive pseudocount",
			method: ports.MethodProbabilityRatio,
			mutate: func(r *ports.ScoreRequest) { r.Pseudo = -1 },
		},
		{
			name:   "unknown method",
			method: ports.ScoreMethod("elisa"),
		},
		{
			name:   "positive fraction is always required",
			method: ports.MethodPalm,
			mutate: func(r *ports.ScoreRequest) { r.Pos = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(t, tt.method)
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			err := ValidateRequest(req)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateRequest_MisalignedFractions(t *testing.T) {
	req := validRequest(t, ports.MethodPalm)
	req.Neg = fixtureTable(t, []core.SubjectID{"s1", "s3", "s2"}, map[core.Taxon][]float64{
		"a": {0.2, 0.3, 0.4},
	})

	err := ValidateRequest(req)
	require.Error(t, err)
	assert.True(t, apperr.IsShapeMismatch(err), "misaligned columns must surface as a shape mismatch")
}

func TestAdapter_Score(t *testing.T) {
	adapter := NewAdapter(testkit.NewStubOracle())

	req := validRequest(t, ports.MethodPalm)
	require.NoError(t, req.Pos.SetRow("undetected", []float64{0, 0.1, 0}))
	require.NoError(t, req.Neg.SetRow("undetected", []float64{0, 0.2, 0}))

	matrix, err := adapter.Score(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, matrix.CheckAlignment(req.Pos.Subjects))

	row, ok := matrix.Row("undetected")
	require.True(t, ok)
	assert.True(t, tables.IsNA(row[0]), "zero abundance in every informing fraction must score NA")
	assert.False(t, tables.IsNA(row[1]))
	assert.Equal(t, 1, matrix.NonMissing("undetected"))
	assert.Equal(t, 3, matrix.NonMissing("a"))
}

func TestAdapter_Score_RejectsBadRequest(t *testing.T) {
	adapter := NewAdapter(testkit.NewStubOracle())
	req := validRequest(t, ports.MethodPalm)
	req.Neg = nil

	_, err := adapter.Score(context.Background(), req)
	assert.Error(t, err)
}

type misalignedOracle struct{}

func (misalignedOracle) Score(context.Context, ports.ScoreRequest) (*tables.ScoreMatrix, error) {
	return tables.NewScoreMatrix([]core.SubjectID{"other"}), nil
}

type failingOracle struct{}

func (failingOracle) Score(context.Context, ports.ScoreRequest) (*tables.ScoreMatrix, error) {
	return nil, errors.New("oracle unavailable")
}

func TestAdapter_Score_OracleFailures(t *testing.T) {
	t.Run("misaligned oracle output", func(t *testing.T) {
		adapter := NewAdapter(misalignedOracle{})
		_, err := adapter.Score(context.Background(), validRequest(t, ports.MethodPalm))
		require.Error(t, err)
		assert.True(t, apperr.IsShapeMismatch(err))
	})
	t.Run("oracle error is wrapped", func(t *testing.T) {
		adapter := NewAdapter(failingOracle{})
		_, err := adapter.Score(context.Background(), validRequest(t, ports.MethodPalm))
		assert.Error(t, err)
	})
}
