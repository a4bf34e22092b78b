package tables

import (
	"fmt"

	"github.com/microbialman/igaseq/domain/core"
)

// SampleInfo is one metadata row: a biological subject with its grouping
// factors. Covariate is optional (empty when the design has no second factor).
type SampleInfo struct {
	Subject   core.SubjectID
	Condition string
	Covariate string
}

// SampleMetadata carries one row per biological subject, ordered.
type SampleMetadata struct {
	Rows []SampleInfo

	byID map[core.SubjectID]int
}

// NewSampleMetadata builds metadata from ordered rows, rejecting duplicate
// subjects.
func NewSampleMetadata(rows []SampleInfo) (*SampleMetadata, error) {
	m := &SampleMetadata{
		Rows: append([]SampleInfo(nil), rows...),
		byID: make(map[core.SubjectID]int, len(rows)),
	}
	for i, row := range m.Rows {
		if row.Subject == "" {
			return nil, fmt.Errorf("metadata row %d has an empty subject identifier", i)
		}
		if _, dup := m.byID[row.Subject]; dup {
			return nil, fmt.Errorf("duplicate subject %s in metadata", row.Subject)
		}
		m.byID[row.Subject] = i
	}
	return m, nil
}

// Lookup returns the row for a subject.
func (m *SampleMetadata) Lookup(subject core.SubjectID) (SampleInfo, bool) {
	i, ok := m.byID[subject]
	if !ok {
		return SampleInfo{}, false
	}
	return m.Rows[i], true
}

// Subjects returns the ordered subject identifiers.
func (m *SampleMetadata) Subjects() []core.SubjectID {
	out := make([]core.SubjectID, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = row.Subject
	}
	return out
}

// ConditionLevels returns the distinct condition values in first-seen order.
func (m *SampleMetadata) ConditionLevels() []string {
	seen := make(map[string]struct{})
	var levels []string
	for _, row := range m.Rows {
		if _, ok := seen[row.Condition]; !ok {
			seen[row.Condition] = struct{}{}
			levels = append(levels, row.Condition)
		}
	}
	return levels
}

// CovariateLevels returns the distinct covariate values in first-seen order.
func (m *SampleMetadata) CovariateLevels() []string {
	seen := make(map[string]struct{})
	var levels []string
	for _, row := range m.Rows {
		if _, ok := seen[row.Covariate]; !ok {
			seen[row.Covariate] = struct{}{}
			levels = append(levels, row.Covariate)
		}
	}
	return levels
}

// CheckAlignment verifies that the metadata's subject set exactly matches the
// given ordered subject columns. Any mismatch is a caller contract violation.
func (m *SampleMetadata) CheckAlignment(subjects []core.SubjectID) error {
	if len(subjects) != len(m.Rows) {
		return fmt.Errorf("metadata has %d subjects, table has %d", len(m.Rows), len(subjects))
	}
	for i, s := range subjects {
		if m.Rows[i].Subject != s {
			return fmt.Errorf("subject order mismatch at column %d: metadata %s, table %s", i, m.Rows[i].Subject, s)
		}
	}
	return nil
}
