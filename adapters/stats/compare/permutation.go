package compare

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// ErrEnumerationLimit is returned when the number of distinct group
// assignments exceeds the configured exhaustive-enumeration cap. The cost of
// full enumeration grows as choose(n1+n2, n1); the cap keeps the engine from
// stalling on group sizes the exact test was never meant for.
var ErrEnumerationLimit = errors.New("permutation enumeration exceeds configured limit")

// statTolerance absorbs float rounding when comparing a permuted statistic
// against the observed one; both come from the same arithmetic.
const statTolerance = 1e-12

// PermutationOutcome is the result of one exact permutation test.
type PermutationOutcome struct {
	// P is the fraction of enumerated assignments whose statistic is at
	// least the observed statistic. Two-sided by construction since the
	// statistic is an absolute difference.
	P float64

	// Observed is the absolute difference of group means under the true
	// labeling.
	Observed float64

	// Enumerated is the number of distinct assignments evaluated,
	// choose(len(a)+len(b), len(a)).
	Enumerated int
}

// ExactPermutationTest compares two groups by enumerating every distinct
// assignment of the pooled observations into groups of the original sizes and
// computing |mean1 - mean2| for each. Deterministic: no sampling, no seed.
// Returns ErrEnumerationLimit when choose(n1+n2, n1) exceeds limit.
func ExactPermutationTest(a, b []float64, limit int) (PermutationOutcome, error) {
	n1, n2 := len(a), len(b)
	n := n1 + n2

	total := combin.Binomial(n, n1)
	if limit > 0 && total > limit {
		return PermutationOutcome{}, ErrEnumerationLimit
	}

	pooled := make([]float64, 0, n)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)

	var pooledSum float64
	for _, v := range pooled {
		pooledSum += v
	}

	observed := math.Abs(meanOf(a) - meanOf(b))

	// Only the first group's member sum is needed per assignment; the
	// second group's mean follows from the pooled total.
	atLeast := 0
	gen := combin.NewCombinationGenerator(n, n1)
	idx := make([]int, n1)
	for gen.Next() {
		gen.Combination(idx)
		var sum1 float64
		for _, i := range idx {
			sum1 += pooled[i]
		}
		stat := math.Abs(sum1/float64(n1) - (pooledSum-sum1)/float64(n2))
		if stat >= observed-statTolerance {
			atLeast++
		}
	}

	return PermutationOutcome{
		P:          float64(atLeast) / float64(total),
		Observed:   observed,
		Enumerated: total,
	}, nil
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
