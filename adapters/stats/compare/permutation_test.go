package compare

import (
	"errors"
	"math"
	"testing"
)

func TestExactPermutationTest_FullySeparatedGroups(t *testing.T) {
	// Disjoint, maximally separated 3v3 groups: only the true labeling and
	// its mirror reach the observed statistic, so p = 2/choose(6,3).
	a := []float64{1, 2, 3}
	b := []float64{10, 11, 12}

	outcome, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest failed: %v", err)
	}
	if outcome.Enumerated != 20 {
		t.Errorf("expected 20 enumerated assignments, got %d", outcome.Enumerated)
	}
	if math.Abs(outcome.Observed-9) > 1e-12 {
		t.Errorf("expected observed statistic 9, got %g", outcome.Observed)
	}
	if math.Abs(outcome.P-0.1) > 1e-12 {
		t.Errorf("expected p = 2/20 = 0.1, got %g", outcome.P)
	}
}

func TestExactPermutationTest_GroupOrderSymmetry(t *testing.T) {
	a := []float64{0.4, 0.9, 0.3, 0.7}
	b := []float64{0.1, 0.5, 0.2}

	ab, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest(a, b) failed: %v", err)
	}
	ba, err := ExactPermutationTest(b, a, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest(b, a) failed: %v", err)
	}
	if math.Abs(ab.P-ba.P) > 1e-12 {
		t.Errorf("p-value depends on group order: %g vs %g", ab.P, ba.P)
	}
	if math.Abs(ab.Observed-ba.Observed) > 1e-12 {
		t.Errorf("observed statistic depends on group order: %g vs %g", ab.Observed, ba.Observed)
	}
}

func TestExactPermutationTest_IdenticalGroups(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2, 3}

	outcome, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest failed: %v", err)
	}
	// Observed statistic is zero; every assignment reaches it.
	if outcome.P != 1 {
		t.Errorf("expected p = 1 for identical groups, got %g", outcome.P)
	}
}

func TestExactPermutationTest_FourVersusFour(t *testing.T) {
	a := []float64{0.9, 0.8, 0.85, 0.82}
	b := []float64{0.1, 0.2, 0.15, 0.12}

	outcome, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest failed: %v", err)
	}
	if outcome.Enumerated != 70 {
		t.Errorf("expected choose(8,4) = 70 assignments, got %d", outcome.Enumerated)
	}
	if outcome.P > 1.0/35+1e-12 {
		t.Errorf("fully separated 4v4 groups should reach p = 2/70, got %g", outcome.P)
	}
}

func TestExactPermutationTest_EnumerationLimit(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}

	_, err := ExactPermutationTest(a, b, 10)
	if !errors.Is(err, ErrEnumerationLimit) {
		t.Fatalf("expected ErrEnumerationLimit for choose(8,4) > 10, got %v", err)
	}

	// Zero disables the cap.
	outcome, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest without cap failed: %v", err)
	}
	if outcome.Enumerated != 70 {
		t.Errorf("expected 70 assignments without cap, got %d", outcome.Enumerated)
	}
}

func TestExactPermutationTest_Deterministic(t *testing.T) {
	a := []float64{0.31, 0.77, 0.52, 0.49}
	b := []float64{0.18, 0.66, 0.41}

	first, err := ExactPermutationTest(a, b, 0)
	if err != nil {
		t.Fatalf("ExactPermutationTest failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ExactPermutationTest(a, b, 0)
		if err != nil {
			t.Fatalf("ExactPermutationTest failed on repeat %d: %v", i, err)
		}
		if again.P != first.P {
			t.Fatalf("p-value changed between runs: %g vs %g", first.P, again.P)
		}
	}
}
