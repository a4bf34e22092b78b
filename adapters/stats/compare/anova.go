package compare

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// FactorialOutcome carries the two p-values extracted from a two-way ANOVA of
// score on covariate, condition and their interaction. The covariate main
// effect is fitted but not reported; only the condition and interaction terms
// answer the comparison question.
type FactorialOutcome struct {
	PCondition   float64
	PInteraction float64
	FCondition   float64
	FInteraction float64
}

type cellKey struct {
	covariate string
	condition string
}

// TwoWayANOVA fits a balanced two-factor crossed design with interaction and
// returns the p-values for the condition main effect and the
// covariate-by-condition interaction. Requires a balanced design (equal cell
// counts, at least two per cell) with exactly two condition levels; the
// engine's pre-checks guarantee that, and violations surface as errors here
// as a second line of defense.
func TwoWayANOVA(values []float64, covariate, condition []string) (FactorialOutcome, error) {
	if len(values) != len(covariate) || len(values) != len(condition) {
		return FactorialOutcome{}, fmt.Errorf("anova inputs have mismatched lengths")
	}
	n := len(values)
	if n == 0 {
		return FactorialOutcome{}, fmt.Errorf("anova requires observations")
	}

	covLevels := distinct(covariate)
	condLevels := distinct(condition)
	a, b := len(covLevels), len(condLevels)
	if a < 2 || b != 2 {
		return FactorialOutcome{}, fmt.Errorf("anova requires >=2 covariate levels and exactly 2 condition levels, got %d and %d", a, b)
	}

	cells := make(map[cellKey][]float64)
	for i, v := range values {
		key := cellKey{covariate: covariate[i], condition: condition[i]}
		cells[key] = append(cells[key], v)
	}
	perCell := -1
	for _, cov := range covLevels {
		for _, cond := range condLevels {
			cell := cells[cellKey{covariate: cov, condition: cond}]
			if len(cell) == 0 {
				return FactorialOutcome{}, fmt.Errorf("empty design cell %s x %s", cov, cond)
			}
			if perCell < 0 {
				perCell = len(cell)
			} else if len(cell) != perCell {
				return FactorialOutcome{}, fmt.Errorf("unbalanced design: cell %s x %s has %d observations, want %d", cov, cond, len(cell), perCell)
			}
		}
	}
	if perCell < 2 {
		return FactorialOutcome{}, fmt.Errorf("anova interaction needs at least 2 observations per cell")
	}

	grand := meanOf(values)

	covMeans := make(map[string]float64, a)
	for _, cov := range covLevels {
		var pooled []float64
		for _, cond := range condLevels {
			pooled = append(pooled, cells[cellKey{covariate: cov, condition: cond}]...)
		}
		covMeans[cov] = meanOf(pooled)
	}
	condMeans := make(map[string]float64, b)
	for _, cond := range condLevels {
		var pooled []float64
		for _, cov := range covLevels {
			pooled = append(pooled, cells[cellKey{covariate: cov, condition: cond}]...)
		}
		condMeans[cond] = meanOf(pooled)
	}

	// Balanced design: factor sums of squares decompose additively.
	var ssCov, ssCond, ssInter, ssErr float64
	for _, cov := range covLevels {
		d := covMeans[cov] - grand
		ssCov += float64(perCell*b) * d * d
	}
	for _, cond := range condLevels {
		d := condMeans[cond] - grand
		ssCond += float64(perCell*a) * d * d
	}
	for _, cov := range covLevels {
		for _, cond := range condLevels {
			cell := cells[cellKey{covariate: cov, condition: cond}]
			cellMean := meanOf(cell)
			d := cellMean - covMeans[cov] - condMeans[cond] + grand
			ssInter += float64(perCell) * d * d
			for _, v := range cell {
				e := v - cellMean
				ssErr += e * e
			}
		}
	}

	dfCond := b - 1
	dfInter := (a - 1) * (b - 1)
	dfErr := a * b * (perCell - 1)
	if dfErr <= 0 {
		return FactorialOutcome{}, fmt.Errorf("no residual degrees of freedom")
	}
	msErr := ssErr / float64(dfErr)
	if msErr == 0 {
		return FactorialOutcome{}, fmt.Errorf("zero residual variance")
	}

	fCond := (ssCond / float64(dfCond)) / msErr
	fInter := (ssInter / float64(dfInter)) / msErr
	_ = ssCov // covariate main effect fitted, not reported

	return FactorialOutcome{
		PCondition:   fPValue(fCond, dfCond, dfErr),
		PInteraction: fPValue(fInter, dfInter, dfErr),
		FCondition:   fCond,
		FInteraction: fInter,
	}, nil
}

// fPValue computes the upper-tail p-value for an F statistic.
func fPValue(f float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || f < 0 {
		return 1.0
	}
	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(f)
}

func distinct(levels []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range levels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	return out
}
