// Package tables holds the value types shared across the analysis pipeline:
// relative-abundance tables, sorted-fraction sets, sample metadata and score
// matrices. All types are immutable by convention; transformations return new
// tables and never mutate their receiver.
package tables

import (
	"fmt"
	"math"

	"github.com/microbialman/igaseq/domain/core"
)

// UnitSumTolerance is the floating tolerance used when checking that a
// fraction's per-subject abundances sum to one.
const UnitSumTolerance = 1e-6

// AbundanceTable maps each taxon to one relative abundance per subject.
// Rows are taxa, columns are subjects; Taxa and Subjects fix the ordering,
// Values holds one row per taxon aligned to Subjects.
type AbundanceTable struct {
	Subjects []core.SubjectID
	Taxa     []core.Taxon
	Values   map[core.Taxon][]float64
}

// NewAbundanceTable builds an empty table over the given subject columns.
func NewAbundanceTable(subjects []core.SubjectID) *AbundanceTable {
	return &AbundanceTable{
		Subjects: append([]core.SubjectID(nil), subjects...),
		Values:   make(map[core.Taxon][]float64),
	}
}

// SetRow adds or replaces a taxon row. The row length must match the subject
// count; a mismatch is a programming error surfaced as an error return.
func (t *AbundanceTable) SetRow(taxon core.Taxon, row []float64) error {
	if len(row) != len(t.Subjects) {
		return fmt.Errorf("row for %s has %d entries, table has %d subjects", taxon, len(row), len(t.Subjects))
	}
	if _, exists := t.Values[taxon]; !exists {
		t.Taxa = append(t.Taxa, taxon)
	}
	t.Values[taxon] = append([]float64(nil), row...)
	return nil
}

// Row returns the abundance row for a taxon.
func (t *AbundanceTable) Row(taxon core.Taxon) ([]float64, bool) {
	row, ok := t.Values[taxon]
	return row, ok
}

// SubjectIndex returns the column position of a subject, or -1.
func (t *AbundanceTable) SubjectIndex(subject core.SubjectID) int {
	for i, s := range t.Subjects {
		if s == subject {
			return i
		}
	}
	return -1
}

// NumTaxa returns the row count.
func (t *AbundanceTable) NumTaxa() int { return len(t.Taxa) }

// NumSubjects returns the column count.
func (t *AbundanceTable) NumSubjects() int { return len(t.Subjects) }

// Clone returns a deep copy.
func (t *AbundanceTable) Clone() *AbundanceTable {
	out := &AbundanceTable{
		Subjects: append([]core.SubjectID(nil), t.Subjects...),
		Taxa:     append([]core.Taxon(nil), t.Taxa...),
		Values:   make(map[core.Taxon][]float64, len(t.Values)),
	}
	for taxon, row := range t.Values {
		out.Values[taxon] = append([]float64(nil), row...)
	}
	return out
}

// SubjectTotals returns, per subject, the summed abundance across all taxa.
func (t *AbundanceTable) SubjectTotals() []float64 {
	totals := make([]float64, len(t.Subjects))
	for _, taxon := range t.Taxa {
		for i, v := range t.Values[taxon] {
			totals[i] += v
		}
	}
	return totals
}

// Prevalence returns the number of subjects in which the taxon exceeds the
// detection threshold.
func (t *AbundanceTable) Prevalence(taxon core.Taxon, threshold float64) int {
	row, ok := t.Values[taxon]
	if !ok {
		return 0
	}
	n := 0
	for _, v := range row {
		if v > threshold {
			n++
		}
	}
	return n
}

// Validate checks structural invariants: unique taxa and subjects, aligned row
// lengths, and no negative abundances.
func (t *AbundanceTable) Validate() error {
	seenSubjects := make(map[core.SubjectID]struct{}, len(t.Subjects))
	for _, s := range t.Subjects {
		if _, dup := seenSubjects[s]; dup {
			return fmt.Errorf("duplicate subject %s", s)
		}
		seenSubjects[s] = struct{}{}
	}
	seenTaxa := make(map[core.Taxon]struct{}, len(t.Taxa))
	for _, taxon := range t.Taxa {
		if _, dup := seenTaxa[taxon]; dup {
			return fmt.Errorf("duplicate taxon %s", taxon)
		}
		seenTaxa[taxon] = struct{}{}
		row, ok := t.Values[taxon]
		if !ok {
			return fmt.Errorf("taxon %s listed but has no row", taxon)
		}
		if len(row) != len(t.Subjects) {
			return fmt.Errorf("taxon %s has %d entries, table has %d subjects", taxon, len(row), len(t.Subjects))
		}
		for i, v := range row {
			if v < 0 {
				return fmt.Errorf("negative abundance %g for taxon %s, subject %s", v, taxon, t.Subjects[i])
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite abundance for taxon %s, subject %s", taxon, t.Subjects[i])
			}
		}
	}
	if len(t.Taxa) != len(t.Values) {
		return fmt.Errorf("taxon order lists %d taxa, values hold %d", len(t.Taxa), len(t.Values))
	}
	return nil
}

// ValidateUnitSum checks that every subject column sums to one within the
// tolerance. Raw per-fraction tables must satisfy this; filtered tables may
// sum below one after contaminants are zeroed, so this is only asserted on
// input.
func (t *AbundanceTable) ValidateUnitSum(tol float64) error {
	for i, total := range t.SubjectTotals() {
		if math.Abs(total-1) > tol {
			return fmt.Errorf("subject %s abundances sum to %g, want 1", t.Subjects[i], total)
		}
	}
	return nil
}

// SameSubjects reports whether two tables share an identical, identically
// ordered subject set.
func SameSubjects(a, b *AbundanceTable) bool {
	if len(a.Subjects) != len(b.Subjects) {
		return false
	}
	for i := range a.Subjects {
		if a.Subjects[i] != b.Subjects[i] {
			return false
		}
	}
	return true
}
