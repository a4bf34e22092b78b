package tables

import (
	"fmt"

	"github.com/microbialman/igaseq/domain/core"
)

// FractionRole names a sorted gate or the unsorted baseline.
type FractionRole string

const (
	FractionPre      FractionRole = "presort"
	FractionPositive FractionRole = "positive"
	FractionNegative FractionRole = "negative"
)

// FractionSet groups the three per-fraction abundance tables for one
// experiment, column-aligned by subject, together with the per-subject gate
// sizes (the proportion of sorted cells routed to each gate).
type FractionSet struct {
	Pre *AbundanceTable
	Pos *AbundanceTable
	Neg *AbundanceTable

	// PosSize and NegSize hold one scalar in [0,1] per subject.
	PosSize map[core.SubjectID]float64
	NegSize map[core.SubjectID]float64
}

// Validate enforces the cross-fraction invariants: identical, identically
// ordered subject sets across all three tables, and gate sizes present and in
// [0,1] for every subject.
func (fs *FractionSet) Validate() error {
	if fs.Pre == nil || fs.Pos == nil || fs.Neg == nil {
		return fmt.Errorf("fraction set requires presort, positive and negative tables")
	}
	for role, t := range map[FractionRole]*AbundanceTable{
		FractionPre:      fs.Pre,
		FractionPositive: fs.Pos,
		FractionNegative: fs.Neg,
	} {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%s fraction: %w", role, err)
		}
	}
	if !SameSubjects(fs.Pos, fs.Neg) || !SameSubjects(fs.Pre, fs.Pos) {
		return fmt.Errorf("fraction tables are not column-aligned by subject")
	}
	for _, subject := range fs.Pos.Subjects {
		if err := checkGateSize(fs.PosSize, subject, FractionPositive); err != nil {
			return err
		}
		if err := checkGateSize(fs.NegSize, subject, FractionNegative); err != nil {
			return err
		}
	}
	return nil
}

func checkGateSize(sizes map[core.SubjectID]float64, subject core.SubjectID, role FractionRole) error {
	size, ok := sizes[subject]
	if !ok {
		return fmt.Errorf("missing %s gate size for subject %s", role, subject)
	}
	if size < 0 || size > 1 {
		return fmt.Errorf("%s gate size %g for subject %s outside [0,1]", role, size, subject)
	}
	return nil
}

// Subjects returns the shared subject ordering.
func (fs *FractionSet) Subjects() []core.SubjectID {
	return fs.Pos.Subjects
}

// Clone returns a deep copy.
func (fs *FractionSet) Clone() *FractionSet {
	out := &FractionSet{
		Pre:     fs.Pre.Clone(),
		Pos:     fs.Pos.Clone(),
		Neg:     fs.Neg.Clone(),
		PosSize: make(map[core.SubjectID]float64, len(fs.PosSize)),
		NegSize: make(map[core.SubjectID]float64, len(fs.NegSize)),
	}
	for k, v := range fs.PosSize {
		out.PosSize[k] = v
	}
	for k, v := range fs.NegSize {
		out.NegSize[k] = v
	}
	return out
}
