// Package filter implements the presence/contamination filter for sorted
// IgA-Seq fractions. Sorted fractions carry systematically lower biomass and
// higher relative noise than the pre-sort community, so abundances pass a
// pipeline of pure transformations before scoring: control subtraction,
// low-prevalence removal, thresholding, presence gating against the pre-sort
// baseline, and a final prevalence prune. Every step returns a new table; an
// entirely empty result is valid output, not an error.
package filter

import (
	"fmt"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// Options configures the filter. Thresholds are empirical, experiment-specific
// choices and therefore always caller-supplied.
type Options struct {
	// Threshold zeroes individual entries below this relative abundance.
	// Chosen by the caller after inspecting a Sweep.
	Threshold float64

	// MinPrevalence drops taxa detected in fewer than this many subjects.
	MinPrevalence int

	// ControlSubject names the negative-control column, if present. Taxa
	// detected in the control and absent from ExpectedTaxa are removed
	// wholesale; the control column itself is then dropped.
	ControlSubject core.SubjectID

	// ExpectedTaxa is the allow-list of taxa legitimately present in the
	// community; these survive control subtraction even when detected in
	// the control.
	ExpectedTaxa []core.Taxon
}

func (o Options) expected() map[core.Taxon]struct{} {
	set := make(map[core.Taxon]struct{}, len(o.ExpectedTaxa))
	for _, t := range o.ExpectedTaxa {
		set[t] = struct{}{}
	}
	return set
}

// SubtractControl removes taxa detected (> 0) in the control column that are
// not on the allow-list, then drops the control column. A table without the
// control column is returned unchanged apart from cloning.
func SubtractControl(t *tables.AbundanceTable, control core.SubjectID, expected map[core.Taxon]struct{}) *tables.AbundanceTable {
	ctrl := t.SubjectIndex(control)
	if ctrl < 0 {
		return t.Clone()
	}

	subjects := make([]core.SubjectID, 0, len(t.Subjects)-1)
	for _, s := range t.Subjects {
		if s != control {
			subjects = append(subjects, s)
		}
	}
	out := tables.NewAbundanceTable(subjects)
	for _, taxon := range t.Taxa {
		row := t.Values[taxon]
		if row[ctrl] > 0 {
			if _, allowed := expected[taxon]; !allowed {
				continue
			}
		}
		kept := make([]float64, 0, len(subjects))
		for i, v := range row {
			if i != ctrl {
				kept = append(kept, v)
			}
		}
		out.SetRow(taxon, kept)
	}
	return out
}

// PrunePrevalence drops taxa with nonzero abundance in fewer than min
// subjects.
func PrunePrevalence(t *tables.AbundanceTable, min int) *tables.AbundanceTable {
	out := tables.NewAbundanceTable(t.Subjects)
	for _, taxon := range t.Taxa {
		if t.Prevalence(taxon, 0) >= min {
			out.SetRow(taxon, t.Values[taxon])
		}
	}
	return out
}

// ZeroBelow zeroes individual entries below the threshold. Per-entry, not
// per-taxon: a taxon may remain above threshold in some subjects only.
func ZeroBelow(t *tables.AbundanceTable, threshold float64) *tables.AbundanceTable {
	out := tables.NewAbundanceTable(t.Subjects)
	for _, taxon := range t.Taxa {
		row := append([]float64(nil), t.Values[taxon]...)
		for i, v := range row {
			if v < threshold {
				row[i] = 0
			}
		}
		out.SetRow(taxon, row)
	}
	return out
}

// GateOnPresort zeroes, per subject, any sorted-fraction abundance whose
// taxon has zero abundance in that subject's pre-sort sample. A taxon not
// detected at baseline cannot be trusted as signal in a sorted fraction.
func GateOnPresort(sorted, pre *tables.AbundanceTable) *tables.AbundanceTable {
	out := tables.NewAbundanceTable(sorted.Subjects)
	for _, taxon := range sorted.Taxa {
		row := append([]float64(nil), sorted.Values[taxon]...)
		preRow, inPre := pre.Values[taxon]
		for i := range row {
			subject := sorted.Subjects[i]
			if !inPre {
				row[i] = 0
				continue
			}
			j := pre.SubjectIndex(subject)
			if j < 0 || preRow[j] == 0 {
				row[i] = 0
			}
		}
		out.SetRow(taxon, row)
	}
	return out
}

// ApplyTable runs control subtraction, low-prevalence removal, thresholding
// and the final prevalence prune on a single fraction table. Presence gating
// needs the whole fraction set; use Apply for that.
func ApplyTable(t *tables.AbundanceTable, opts Options) *tables.AbundanceTable {
	out := SubtractControl(t, opts.ControlSubject, opts.expected())
	out = PrunePrevalence(out, opts.MinPrevalence)
	out = ZeroBelow(out, opts.Threshold)
	return PrunePrevalence(out, opts.MinPrevalence)
}

// Apply runs the full filter over a fraction set: steps 1-3 per fraction,
// presence gating of the sorted fractions against the filtered pre-sort
// table, then the final prevalence prune on every fraction. Gate sizes pass
// through untouched (minus a control column entry if one existed).
func Apply(fs *tables.FractionSet, opts Options) (*tables.FractionSet, error) {
	// Gate sizes are only required for real subjects, so the control column
	// is excluded before the full invariant check runs.
	for _, t := range []*tables.AbundanceTable{fs.Pre, fs.Pos, fs.Neg} {
		if t == nil {
			return nil, fmt.Errorf("fraction set requires presort, positive and negative tables")
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	if !tables.SameSubjects(fs.Pos, fs.Neg) || !tables.SameSubjects(fs.Pre, fs.Pos) {
		return nil, fmt.Errorf("fraction tables are not column-aligned by subject")
	}
	expected := opts.expected()

	pre := ZeroBelow(PrunePrevalence(SubtractControl(fs.Pre, opts.ControlSubject, expected), opts.MinPrevalence), opts.Threshold)
	pos := ZeroBelow(PrunePrevalence(SubtractControl(fs.Pos, opts.ControlSubject, expected), opts.MinPrevalence), opts.Threshold)
	neg := ZeroBelow(PrunePrevalence(SubtractControl(fs.Neg, opts.ControlSubject, expected), opts.MinPrevalence), opts.Threshold)

	pos = GateOnPresort(pos, pre)
	neg = GateOnPresort(neg, pre)

	out := &tables.FractionSet{
		Pre:     PrunePrevalence(pre, opts.MinPrevalence),
		Pos:     PrunePrevalence(pos, opts.MinPrevalence),
		Neg:     PrunePrevalence(neg, opts.MinPrevalence),
		PosSize: make(map[core.SubjectID]float64, len(fs.PosSize)),
		NegSize: make(map[core.SubjectID]float64, len(fs.NegSize)),
	}
	for _, subject := range out.Pos.Subjects {
		if v, ok := fs.PosSize[subject]; ok {
			out.PosSize[subject] = v
		}
		if v, ok := fs.NegSize[subject]; ok {
			out.NegSize[subject] = v
		}
	}
	return out, nil
}
