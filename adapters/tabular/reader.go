// Package tabular loads abundance tables, gate sizes and sample metadata from
// CSV and Excel files. File loading is a collaborator of the analysis core,
// not part of it: everything here produces in-memory tables and nothing here
// computes.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
)

// Reader loads one tabular file, dispatching on extension.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader for a .csv or .xlsx file.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// rows loads the raw cell grid.
func (r *Reader) rows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, fmt.Errorf("opening %s: %w", r.filePath, err)
	}
	if r.fileType == "xlsx" {
		return r.xlsxRows()
	}
	return r.csvRows()
}

func (r *Reader) csvRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func (r *Reader) xlsxRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", r.filePath)
	}
	return f.GetRows(sheets[0])
}

// ReadAbundanceTable loads a taxon-by-subject table: first header cell is
// ignored, remaining header cells are subject identifiers; each data row is a
// taxon followed by one abundance per subject. Blank cells read as zero.
func (r *Reader) ReadAbundanceTable() (*tables.AbundanceTable, error) {
	grid, err := r.rows()
	if err != nil {
		return nil, err
	}
	if len(grid) < 1 || len(grid[0]) < 2 {
		return nil, fmt.Errorf("%s: abundance table needs a subject header and at least one column", r.filePath)
	}
	header := grid[0]
	subjects := make([]core.SubjectID, 0, len(header)-1)
	for _, h := range header[1:] {
		subjects = append(subjects, core.SubjectID(strings.TrimSpace(h)))
	}

	table := tables.NewAbundanceTable(subjects)
	for rowIdx, row := range grid[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		taxon := core.Taxon(strings.TrimSpace(row[0]))
		values := make([]float64, len(subjects))
		for i := range subjects {
			cell := ""
			if i+1 < len(row) {
				cell = strings.TrimSpace(row[i+1])
			}
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: parsing %q: %w", r.filePath, rowIdx+2, cell, err)
			}
			values[i] = v
		}
		if err := table.SetRow(taxon, values); err != nil {
			return nil, fmt.Errorf("%s: %w", r.filePath, err)
		}
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	return table, nil
}

// ReadGateSizes loads per-subject gate sizes from a two-column table
// (subject, size), skipping a header row when the size cell does not parse.
func (r *Reader) ReadGateSizes() (map[core.SubjectID]float64, error) {
	grid, err := r.rows()
	if err != nil {
		return nil, err
	}
	out := make(map[core.SubjectID]float64)
	for rowIdx, row := range grid {
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if rowIdx == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%s row %d: parsing gate size %q: %w", r.filePath, rowIdx+1, row[1], err)
		}
		out[core.SubjectID(strings.TrimSpace(row[0]))] = v
	}
	return out, nil
}

// ReadMetadata loads sample metadata from a table with columns
// subject,condition[,covariate], first row treated as a header.
func (r *Reader) ReadMetadata() (*tables.SampleMetadata, error) {
	grid, err := r.rows()
	if err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("%s: metadata needs a header and at least one subject row", r.filePath)
	}
	var rows []tables.SampleInfo
	for _, row := range grid[1:] {
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		info := tables.SampleInfo{
			Subject:   core.SubjectID(strings.TrimSpace(row[0])),
			Condition: strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			info.Covariate = strings.TrimSpace(row[2])
		}
		rows = append(rows, info)
	}
	return tables.NewSampleMetadata(rows)
}
