package tables

import (
	"math"
	"reflect"
	"testing"

	"github.com/microbialman/igaseq/domain/core"
)

func TestAbundanceTable_SetRowAndValidate(t *testing.T) {
	table := NewAbundanceTable([]core.SubjectID{"s1", "s2"})

	if err := table.SetRow("a", []float64{0.5, 0.5}); err != nil {
		t.Fatalf("SetRow failed: %v", err)
	}
	if err := table.SetRow("b", []float64{0.1}); err == nil {
		t.Error("expected error for row length mismatch")
	}
	if err := table.Validate(); err != nil {
		t.Errorf("valid table failed validation: %v", err)
	}

	t.Run("negative abundance", func(t *testing.T) {
		bad := NewAbundanceTable([]core.SubjectID{"s1"})
		bad.SetRow("a", []float64{-0.1})
		if err := bad.Validate(); err == nil {
			t.Error("expected error for negative abundance")
		}
	})
	t.Run("non-finite abundance", func(t *testing.T) {
		bad := NewAbundanceTable([]core.SubjectID{"s1"})
		bad.SetRow("a", []float64{math.NaN()})
		if err := bad.Validate(); err == nil {
			t.Error("expected error for NaN abundance")
		}
	})
	t.Run("duplicate subject", func(t *testing.T) {
		bad := NewAbundanceTable([]core.SubjectID{"s1", "s1"})
		if err := bad.Validate(); err == nil {
			t.Error("expected error for duplicate subject")
		}
	})
}

func TestAbundanceTable_Prevalence(t *testing.T) {
	table := NewAbundanceTable([]core.SubjectID{"s1", "s2", "s3"})
	table.SetRow("a", []float64{0.5, 0.001, 0})

	tests := []struct {
		threshold float64
		want      int
	}{
		{0, 2},
		{0.01, 1},
		{0.5, 0},
	}
	for _, tt := range tests {
		if got := table.Prevalence("a", tt.threshold); got != tt.want {
			t.Errorf("Prevalence at %g: expected %d, got %d", tt.threshold, tt.want, got)
		}
	}
	if got := table.Prevalence("missing", 0); got != 0 {
		t.Errorf("absent taxon has prevalence 0, got %d", got)
	}
}

func TestAbundanceTable_UnitSum(t *testing.T) {
	table := NewAbundanceTable([]core.SubjectID{"s1", "s2"})
	table.SetRow("a", []float64{0.6, 0.3})
	table.SetRow("b", []float64{0.4, 0.7})

	if err := table.ValidateUnitSum(UnitSumTolerance); err != nil {
		t.Errorf("simplex columns failed the unit-sum check: %v", err)
	}

	table.SetRow("b", []float64{0.4, 0.6})
	if err := table.ValidateUnitSum(UnitSumTolerance); err == nil {
		t.Error("expected error for a column summing to 0.9")
	}
}

func TestAbundanceTable_CloneIsIndependent(t *testing.T) {
	table := NewAbundanceTable([]core.SubjectID{"s1"})
	table.SetRow("a", []float64{0.5})

	clone := table.Clone()
	clone.Values["a"][0] = 0.9
	clone.SetRow("b", []float64{0.1})

	if row, _ := table.Row("a"); row[0] != 0.5 {
		t.Error("mutating the clone changed the original values")
	}
	if table.NumTaxa() != 1 {
		t.Error("mutating the clone changed the original taxon set")
	}
}

func TestScoreMatrix(t *testing.T) {
	m := NewScoreMatrix([]core.SubjectID{"s1", "s2", "s3"})
	m.SetRow("a", []float64{0.4, NA(), 0.1})

	if got := m.NonMissing("a"); got != 2 {
		t.Errorf("expected 2 non-missing entries, got %d", got)
	}
	if err := m.CheckAlignment([]core.SubjectID{"s1", "s2", "s3"}); err != nil {
		t.Errorf("aligned subjects failed the check: %v", err)
	}
	if err := m.CheckAlignment([]core.SubjectID{"s1", "s3", "s2"}); err == nil {
		t.Error("expected error for reordered subjects")
	}
	if err := m.CheckAlignment([]core.SubjectID{"s1"}); err == nil {
		t.Error("expected error for a shorter subject set")
	}

	if !IsNA(NA()) {
		t.Error("NA marker must satisfy IsNA")
	}
	if IsNA(0) {
		t.Error("zero is a value, not a missing marker")
	}
}

func TestSampleMetadata(t *testing.T) {
	rows := []SampleInfo{
		{Subject: "s1", Condition: "case", Covariate: "week2"},
		{Subject: "s2", Condition: "control", Covariate: "week2"},
		{Subject: "s3", Condition: "case", Covariate: "week4"},
	}
	meta, err := NewSampleMetadata(rows)
	if err != nil {
		t.Fatalf("NewSampleMetadata failed: %v", err)
	}

	if got := meta.ConditionLevels(); !reflect.DeepEqual(got, []string{"case", "control"}) {
		t.Errorf("condition levels in first-seen order, got %v", got)
	}
	if got := meta.CovariateLevels(); !reflect.DeepEqual(got, []string{"week2", "week4"}) {
		t.Errorf("covariate levels in first-seen order, got %v", got)
	}

	info, ok := meta.Lookup("s2")
	if !ok || info.Condition != "control" {
		t.Errorf("Lookup(s2) = %+v, %v", info, ok)
	}
	if _, ok := meta.Lookup("s9"); ok {
		t.Error("Lookup succeeded for absent subject")
	}

	if err := meta.CheckAlignment([]core.SubjectID{"s1", "s2", "s3"}); err != nil {
		t.Errorf("aligned metadata failed the check: %v", err)
	}
	if err := meta.CheckAlignment([]core.SubjectID{"s2", "s1", "s3"}); err == nil {
		t.Error("expected error for reordered metadata")
	}

	t.Run("duplicate subject rejected", func(t *testing.T) {
		_, err := NewSampleMetadata([]SampleInfo{
			{Subject: "s1", Condition: "case"},
			{Subject: "s1", Condition: "control"},
		})
		if err == nil {
			t.Error("expected error for duplicate subject")
		}
	})
	t.Run("empty subject rejected", func(t *testing.T) {
		if _, err := NewSampleMetadata([]SampleInfo{{Condition: "case"}}); err == nil {
			t.Error("expected error for empty subject identifier")
		}
	})
}

func TestFractionSet_Validate(t *testing.T) {
	mk := func() *FractionSet {
		subjects := []core.SubjectID{"s1", "s2"}
		pre := NewAbundanceTable(subjects)
		pre.SetRow("a", []float64{0.5, 0.5})
		pos := NewAbundanceTable(subjects)
		pos.SetRow("a", []float64{0.6, 0.4})
		neg := NewAbundanceTable(subjects)
		neg.SetRow("a", []float64{0.4, 0.6})
		return &FractionSet{
			Pre: pre, Pos: pos, Neg: neg,
			PosSize: map[core.SubjectID]float64{"s1": 0.3, "s2": 0.4},
			NegSize: map[core.SubjectID]float64{"s1": 0.5, "s2": 0.5},
		}
	}

	if err := mk().Validate(); err != nil {
		t.Fatalf("valid fraction set failed validation: %v", err)
	}

	t.Run("missing table", func(t *testing.T) {
		fs := mk()
		fs.Neg = nil
		if err := fs.Validate(); err == nil {
			t.Error("expected error for a missing fraction table")
		}
	})
	t.Run("misaligned subjects", func(t *testing.T) {
		fs := mk()
		fs.Neg = NewAbundanceTable([]core.SubjectID{"s2", "s1"})
		fs.Neg.SetRow("a", []float64{0.6, 0.4})
		if err := fs.Validate(); err == nil {
			t.Error("expected error for reordered subjects")
		}
	})
	t.Run("missing gate size", func(t *testing.T) {
		fs := mk()
		delete(fs.PosSize, "s2")
		if err := fs.Validate(); err == nil {
			t.Error("expected error for a missing gate size")
		}
	})
	t.Run("gate size out of range", func(t *testing.T) {
		fs := mk()
		fs.NegSize["s1"] = 1.2
		if err := fs.Validate(); err == nil {
			t.Error("expected error for a gate size above 1")
		}
	})
}
