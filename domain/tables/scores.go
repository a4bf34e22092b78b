package tables

import (
	"fmt"
	"math"

	"github.com/microbialman/igaseq/domain/core"
)

// NA is the missing-value marker used in score matrices and results. A score
// is missing when a taxon is undetectable in every fraction informing it for
// that subject; missing values propagate, they are never substituted by zero.
func NA() float64 { return math.NaN() }

// IsNA reports whether a value is the missing-value marker.
func IsNA(v float64) bool { return math.IsNaN(v) }

// ScoreMatrix maps each taxon to one binding score per subject. Entries may
// be NA. Taxon set and subject order match the FractionSet the scores were
// derived from.
type ScoreMatrix struct {
	Subjects []core.SubjectID
	Taxa     []core.Taxon
	Values   map[core.Taxon][]float64
}

// NewScoreMatrix builds an empty matrix over the given subject columns.
func NewScoreMatrix(subjects []core.SubjectID) *ScoreMatrix {
	return &ScoreMatrix{
		Subjects: append([]core.SubjectID(nil), subjects...),
		Values:   make(map[core.Taxon][]float64),
	}
}

// SetRow adds or replaces a taxon's score row.
func (m *ScoreMatrix) SetRow(taxon core.Taxon, row []float64) error {
	if len(row) != len(m.Subjects) {
		return fmt.Errorf("score row for %s has %d entries, matrix has %d subjects", taxon, len(row), len(m.Subjects))
	}
	if _, exists := m.Values[taxon]; !exists {
		m.Taxa = append(m.Taxa, taxon)
	}
	m.Values[taxon] = append([]float64(nil), row...)
	return nil
}

// Row returns the score row for a taxon.
func (m *ScoreMatrix) Row(taxon core.Taxon) ([]float64, bool) {
	row, ok := m.Values[taxon]
	return row, ok
}

// NumTaxa returns the row count.
func (m *ScoreMatrix) NumTaxa() int { return len(m.Taxa) }

// NonMissing returns the count of non-NA entries in a taxon's row.
func (m *ScoreMatrix) NonMissing(taxon core.Taxon) int {
	row, ok := m.Values[taxon]
	if !ok {
		return 0
	}
	n := 0
	for _, v := range row {
		if !IsNA(v) {
			n++
		}
	}
	return n
}

// CheckAlignment verifies the matrix shares the given ordered subject set.
func (m *ScoreMatrix) CheckAlignment(subjects []core.SubjectID) error {
	if len(subjects) != len(m.Subjects) {
		return fmt.Errorf("score matrix has %d subjects, want %d", len(m.Subjects), len(subjects))
	}
	for i, s := range subjects {
		if m.Subjects[i] != s {
			return fmt.Errorf("score matrix subject order mismatch at column %d: %s vs %s", i, m.Subjects[i], s)
		}
	}
	return nil
}
