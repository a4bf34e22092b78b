package compare

import (
	"sort"

	"github.com/microbialman/igaseq/domain/tables"
)

// BenjaminiHochberg applies false-discovery-rate correction to a set of raw
// p-values and returns the adjusted values in the input order. NA entries are
// preserved as NA and do not count toward the number of tests. Adjusted
// values are never below their raw value and preserve the raw rank order.
func BenjaminiHochberg(p []float64) []float64 {
	out := make([]float64, len(p))

	var order []int
	for i, v := range p {
		if tables.IsNA(v) {
			out[i] = tables.NA()
			continue
		}
		order = append(order, i)
	}
	m := len(order)
	if m == 0 {
		return out
	}
	sort.Slice(order, func(x, y int) bool { return p[order[x]] < p[order[y]] })

	// Step-up: enforce monotonicity from the largest p-value down.
	adj := make([]float64, m)
	running := 1.0
	for rank := m - 1; rank >= 0; rank-- {
		v := p[order[rank]] * float64(m) / float64(rank+1)
		if v < running {
			running = v
		}
		adj[rank] = running
	}
	for rank, idx := range order {
		out[idx] = adj[rank]
	}
	return out
}
