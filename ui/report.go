// Package ui renders analysis runs as markdown reports and serves them over
// HTTP. Reporting consumes the terminal result table; it never computes.
package ui

import (
	"fmt"
	"strings"

	"github.com/microbialman/igaseq/adapters/stats/filter"
	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/run"
	"github.com/microbialman/igaseq/domain/tables"
)

// RenderMarkdown builds the report for one run: the manifest header, the full
// per-taxon table, and the significant subset.
func RenderMarkdown(rn *run.Run, rows []compare.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Differential binding analysis %s\n\n", rn.ID)
	fmt.Fprintf(&b, "- Method: `%s`\n", rn.Method)
	fmt.Fprintf(&b, "- Strategy: `%s`\n", rn.Strategy)
	fmt.Fprintf(&b, "- Significance threshold: %g\n", rn.Alpha)
	fmt.Fprintf(&b, "- Filter: threshold %g, min prevalence %d\n", rn.Threshold, rn.MinPrevalence)
	fmt.Fprintf(&b, "- Taxa: %d in, %d tested; %d subjects\n\n", rn.TaxaIn, rn.TaxaTested, rn.NumSubjects)

	b.WriteString("## All taxa\n\n")
	writeResultTable(&b, rows)

	var significant []compare.Result
	for _, r := range rows {
		if r.Significant {
			significant = append(significant, r)
		}
	}
	b.WriteString("\n## Significant taxa\n\n")
	if len(significant) == 0 {
		b.WriteString("None at the configured threshold.\n")
	} else {
		writeResultTable(&b, significant)
	}
	return b.String()
}

func writeResultTable(b *strings.Builder, rows []compare.Result) {
	b.WriteString("| Taxon | Testable | p | p (adj) | p cond | p interact | Effects | Significant |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Taxon,
			testableCell(r),
			numCell(r.PValue), numCell(r.PAdjusted),
			numCell(r.PCondition), numCell(r.PInteraction),
			effectsCell(r.Effects),
			boolCell(r.Significant))
	}
}

// numCell renders NA explicitly so "not reported" always means known, never
// silently skipped.
func numCell(v float64) string {
	if tables.IsNA(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4g", v)
}

func testableCell(r compare.Result) string {
	if r.Testable {
		return "yes"
	}
	return fmt.Sprintf("no (%s)", r.Reason)
}

func boolCell(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func effectsCell(effects []compare.StratumEffect) string {
	if len(effects) == 0 {
		return "NA"
	}
	parts := make([]string, 0, len(effects))
	for _, e := range effects {
		if e.Stratum == "" {
			parts = append(parts, numCell(e.SSMD))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Stratum, numCell(e.SSMD)))
		}
	}
	return strings.Join(parts, "; ")
}

// RenderSweepMarkdown builds the threshold-sweep diagnostic table.
func RenderSweepMarkdown(candidates []filter.Candidate) string {
	var b strings.Builder
	b.WriteString("# Threshold sweep\n\n")
	b.WriteString("| Threshold | Taxa retained | Mean retained abundance | Unexpected/expected ratio |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "| %g | %d | %s | %s |\n", c.Threshold, c.TaxaRetained, numCell(c.MeanRetained), numCell(c.UnexpectedRatio))
	}
	return b.String()
}
