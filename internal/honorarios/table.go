// Package honorarios implements the fee-table enrichment: an XLSX reference
// workbook mapping expert specialties and value bands to the tabulated fee,
// consulted to cross-check and normalize the judge-set value.
package honorarios

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Row is one fee-table band.
type Row struct {
	Especialidade string
	Especie       string
	MinValue      float64
	MaxValue      float64
	Tabulated     string
}

// Table is the loaded fee reference, read-only after construction.
type Table struct {
	rows []Row
}

// NewTable builds a table from rows, mainly for tests.
func NewTable(rows ...Row) *Table {
	return &Table{rows: rows}
}

// Len returns the number of fee bands.
func (t *Table) Len() int {
	return len(t.rows)
}

// LoadTable reads the fee workbook. Expected columns on the first sheet:
// especialidade, espécie, minimum, maximum, tabulated value; the first row is
// a header. A missing file yields an empty table.
func LoadTable(path string) (*Table, error) {
	t := &Table{}
	if path == "" {
		return t, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return t, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open fee workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return t, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read fee workbook %s: %w", path, err)
	}

	for i, cells := range rows {
		if i == 0 || len(cells) < 5 {
			continue
		}
		minV, okMin := textnorm.ParseMoney(cells[2])
		maxV, okMax := textnorm.ParseMoney(cells[3])
		if !okMin || !okMax {
			continue
		}
		t.rows = append(t.rows, Row{
			Especialidade: strings.TrimSpace(cells[0]),
			Especie:       strings.TrimSpace(cells[1]),
			MinValue:      minV,
			MaxValue:      maxV,
			Tabulated:     strings.TrimSpace(cells[4]),
		})
	}
	return t, nil
}

// Enrich resolves the tabulated fee band for a specialty and base value. The
// specialty is matched on normalized containment either way; the base value
// must fall inside the band.
func (t *Table) Enrich(expert pipeline.Expert, especialidade, baseValue string) (pipeline.FeeEnrichment, error) {
	base, ok := textnorm.ParseMoney(baseValue)
	if !ok {
		return pipeline.FeeEnrichment{Status: "base_value_unparseable"}, nil
	}

	wanted := especialidade
	if wanted == "" {
		wanted = expert.Especialidade
	}
	wantedKey := textnorm.NormalizeForMatch(wanted)

	for _, row := range t.rows {
		rowKey := textnorm.NormalizeForMatch(row.Especialidade)
		if wantedKey != "" && rowKey != "" &&
			!strings.Contains(rowKey, wantedKey) && !strings.Contains(wantedKey, rowKey) {
			continue
		}
		if base < row.MinValue || base > row.MaxValue {
			continue
		}
		return pipeline.FeeEnrichment{
			Status:          pipeline.StatusOK,
			Especialidade:   row.Especialidade,
			Especie:         row.Especie,
			NormalizedValue: textnorm.FormatMoney(base),
			TabulatedRef:    row.Tabulated,
			Confidence:      0.9,
		}, nil
	}
	return pipeline.FeeEnrichment{Status: "no_match"}, nil
}

// SpecialtyCandidates scans text for the specialty vocabulary registered in
// the table, yielding a candidate per distinct specialty found.
func (t *Table) SpecialtyCandidates(text string) []pipeline.SpecialtyMatch {
	normalized := textnorm.NormalizeForMatch(text)
	if normalized == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []pipeline.SpecialtyMatch
	for _, row := range t.rows {
		key := textnorm.NormalizeForMatch(row.Especialidade)
		if key == "" || seen[key] || !strings.Contains(normalized, key) {
			continue
		}
		seen[key] = true
		out = append(out, pipeline.SpecialtyMatch{
			Especialidade: row.Especialidade,
			Especie:       row.Especie,
			Matched:       key,
		})
	}
	return out
}
