package compare

import (
	"testing"
)

// balancedDesign builds a 3 covariate-level by 2 condition-level design with
// two observations per cell. cell returns the base value for one cell; the two
// observations in it are base and base+0.1.
func balancedDesign(cell func(cov int, cond string) float64) (values []float64, covariates, conditions []string) {
	covLevels := []string{"week2", "week4", "week8"}
	for i, cov := range covLevels {
		for _, cond := range []string{"case", "control"} {
			base := cell(i+1, cond)
			for _, v := range []float64{base, base + 0.1} {
				values = append(values, v)
				covariates = append(covariates, cov)
				conditions = append(conditions, cond)
			}
		}
	}
	return values, covariates, conditions
}

func TestTwoWayANOVA_ConditionEffect(t *testing.T) {
	// Additive shift of +5 for controls at every covariate level: a strong
	// condition main effect with exactly zero interaction.
	values, covariates, conditions := balancedDesign(func(cov int, cond string) float64 {
		base := float64(cov)
		if cond == "control" {
			base += 5
		}
		return base
	})

	outcome, err := TwoWayANOVA(values, covariates, conditions)
	if err != nil {
		t.Fatalf("TwoWayANOVA failed: %v", err)
	}
	if outcome.PCondition > 1e-6 {
		t.Errorf("expected tiny condition p-value, got %g", outcome.PCondition)
	}
	if outcome.FCondition < 1000 {
		t.Errorf("expected large condition F statistic, got %g", outcome.FCondition)
	}
	if outcome.PInteraction < 0.99 {
		t.Errorf("expected interaction p near 1 for an additive shift, got %g", outcome.PInteraction)
	}
}

func TestTwoWayANOVA_InteractionEffect(t *testing.T) {
	// The condition shift only applies at the last covariate level, so the
	// interaction term must light up.
	values, covariates, conditions := balancedDesign(func(cov int, cond string) float64 {
		base := float64(cov)
		if cond == "control" {
			base += 5
			if cov == 3 {
				base += 10
			}
		}
		return base
	})

	outcome, err := TwoWayANOVA(values, covariates, conditions)
	if err != nil {
		t.Fatalf("TwoWayANOVA failed: %v", err)
	}
	if outcome.PInteraction > 1e-6 {
		t.Errorf("expected tiny interaction p-value, got %g", outcome.PInteraction)
	}
}

func TestTwoWayANOVA_DesignViolations(t *testing.T) {
	values, covariates, conditions := balancedDesign(func(cov int, cond string) float64 {
		return float64(cov)
	})

	tests := []struct {
		name   string
		mutate func() ([]float64, []string, []string)
	}{
		{
			name: "mismatched input lengths",
			mutate: func() ([]float64, []string, []string) {
				return values[:len(values)-1], covariates, conditions
			},
		},
		{
			name: "no observations",
			mutate: func() ([]float64, []string, []string) {
				return nil, nil, nil
			},
		},
		{
			name: "unbalanced cells",
			mutate: func() ([]float64, []string, []string) {
				return values[1:], covariates[1:], conditions[1:]
			},
		},
		{
			name: "single condition level",
			mutate: func() ([]float64, []string, []string) {
				conds := make([]string, len(conditions))
				for i := range conds {
					conds[i] = "case"
				}
				return values, covariates, conds
			},
		},
		{
			name: "single observation per cell",
			mutate: func() ([]float64, []string, []string) {
				var v []float64
				var cov, cond []string
				seen := make(map[cellKey]bool)
				for i := range values {
					key := cellKey{covariate: covariates[i], condition: conditions[i]}
					if seen[key] {
						continue
					}
					seen[key] = true
					v = append(v, values[i])
					cov = append(cov, covariates[i])
					cond = append(cond, conditions[i])
				}
				return v, cov, cond
			},
		},
		{
			name: "zero residual variance",
			mutate: func() ([]float64, []string, []string) {
				flat := make([]float64, len(values))
				for i := range flat {
					flat[i] = 1
				}
				return flat, covariates, conditions
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, cov, cond := tt.mutate()
			if _, err := TwoWayANOVA(v, cov, cond); err == nil {
				t.Error("expected an error, got none")
			}
		})
	}
}
