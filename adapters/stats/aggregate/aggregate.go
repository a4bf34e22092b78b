// Package aggregate assembles per-taxon comparison results into the terminal
// result table of an analysis: one row per input taxon, false-discovery-rate
// correction across the taxon set, significance flags against the caller's
// threshold, and the cross-method merged view.
package aggregate

import (
	"sort"

	statscompare "github.com/microbialman/igaseq/adapters/stats/compare"
	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// Table is the terminal artifact of one analysis: every submitted taxon,
// ordered by taxon identifier for stable downstream joins.
type Table struct {
	Rows  []compare.Result
	Alpha float64
}

// Build sorts the results, applies Benjamini-Hochberg correction to the
// permutation p-values across the full taxon set, and flags significance
// against alpha. Factorial results are flagged on their raw condition and
// interaction p-values (either below alpha); permutation results on the
// adjusted p-value. Untestable rows stay in the table with NA everywhere.
func Build(results []compare.Result, alpha float64) Table {
	rows := append([]compare.Result(nil), results...)
	sort.Slice(rows, func(a, b int) bool { return rows[a].Taxon < rows[b].Taxon })

	raw := make([]float64, len(rows))
	for i, r := range rows {
		raw[i] = r.PValue
	}
	adjusted := statscompare.BenjaminiHochberg(raw)

	for i := range rows {
		rows[i].PAdjusted = adjusted[i]
		if !rows[i].Testable {
			continue
		}
		switch rows[i].Strategy {
		case compare.StrategyPermutation:
			rows[i].Significant = !tables.IsNA(adjusted[i]) && adjusted[i] < alpha
		case compare.StrategyFactorial:
			sigCond := !tables.IsNA(rows[i].PCondition) && rows[i].PCondition < alpha
			sigInter := !tables.IsNA(rows[i].PInteraction) && rows[i].PInteraction < alpha
			rows[i].Significant = sigCond || sigInter
		}
	}
	return Table{Rows: rows, Alpha: alpha}
}

// Significant returns the taxa flagged significant, ordered by taxon.
func (t Table) Significant() []compare.Result {
	var out []compare.Result
	for _, r := range t.Rows {
		if r.Significant {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the row for a taxon.
func (t Table) Lookup(taxon core.Taxon) (compare.Result, bool) {
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].Taxon >= taxon })
	if i < len(t.Rows) && t.Rows[i].Taxon == taxon {
		return t.Rows[i], true
	}
	return compare.Result{}, false
}

// MethodPair exposes, side by side, the results two scoring methods produced
// for the same taxon and comparison. Used to study method agreement, not to
// pick a winner.
type MethodPair struct {
	Taxon core.Taxon
	A     compare.Result
	B     compare.Result
}

// Merge joins two tables on taxon, restricted to taxa significant in at
// least one method, ordered by taxon. Taxa absent from either table are
// skipped: agreement is only defined where both methods produced a row.
func Merge(a, b Table) []MethodPair {
	var out []MethodPair
	for _, rowA := range a.Rows {
		rowB, ok := b.Lookup(rowA.Taxon)
		if !ok {
			continue
		}
		if !rowA.Significant && !rowB.Significant {
			continue
		}
		out = append(out, MethodPair{Taxon: rowA.Taxon, A: rowA, B: rowB})
	}
	return out
}
