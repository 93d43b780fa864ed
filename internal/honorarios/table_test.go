package honorarios

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

func testTable() *Table {
	return NewTable(
		Row{
			Especialidade: "Engenharia Civil",
			Especie:       "Perícia de Engenharia",
			MinValue:      1000,
			MaxValue:      2000,
			Tabulated:     "tabela-a:12",
		},
		Row{
			Especialidade: "Medicina do Trabalho",
			Especie:       "Perícia Médica",
			MinValue:      2000.01,
			MaxValue:      5000,
			Tabulated:     "tabela-a:27",
		},
	)
}

func TestEnrichMatchesBand(t *testing.T) {
	enr, err := testTable().Enrich(pipeline.Expert{}, "engenharia civil", "R$ 1.500,00")

	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusOK, enr.Status)
	assert.Equal(t, "Engenharia Civil", enr.Especialidade)
	assert.Equal(t, "Perícia de Engenharia", enr.Especie)
	assert.Equal(t, "R$ 1.500,00", enr.NormalizedValue)
	assert.Equal(t, "tabela-a:12", enr.TabulatedRef)
}

func TestEnrichFallsBackToExpertSpecialty(t *testing.T) {
	expert := pipeline.Expert{Especialidade: "Medicina do Trabalho"}

	enr, err := testTable().Enrich(expert, "", "R$ 3.000,00")

	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusOK, enr.Status)
	assert.Equal(t, "tabela-a:27", enr.TabulatedRef)
}

func TestEnrichValueOutsideBand(t *testing.T) {
	enr, err := testTable().Enrich(pipeline.Expert{}, "Engenharia Civil", "R$ 9.000,00")

	require.NoError(t, err)
	assert.Equal(t, "no_match", enr.Status)
}

func TestEnrichUnparseableBaseValue(t *testing.T) {
	enr, err := testTable().Enrich(pipeline.Expert{}, "Engenharia Civil", "a combinar")

	require.NoError(t, err)
	assert.Equal(t, "base_value_unparseable", enr.Status)
}

func TestEnrichWithoutSpecialtyMatchesByValueOnly(t *testing.T) {
	enr, err := testTable().Enrich(pipeline.Expert{}, "", "1.500,00")

	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusOK, enr.Status)
	assert.Equal(t, "Engenharia Civil", enr.Especialidade)
}

func TestSpecialtyCandidates(t *testing.T) {
	matches := testTable().SpecialtyCandidates(
		"laudo de ENGENHARIA CIVIL e novamente engenharia civil no corpo")

	require.Len(t, matches, 1)
	assert.Equal(t, "Engenharia Civil", matches[0].Especialidade)
	assert.Equal(t, "Perícia de Engenharia", matches[0].Especie)
}

func TestSpecialtyCandidatesEmptyText(t *testing.T) {
	assert.Nil(t, testTable().SpecialtyCandidates("   "))
}

func TestLoadTableMissingFile(t *testing.T) {
	table, err := LoadTable(filepath.Join(t.TempDir(), "absent.xlsx"))

	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadTableEmptyPath(t *testing.T) {
	table, err := LoadTable("")

	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadTableFromWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "honorarios.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"especialidade", "especie", "minimo", "maximo", "tabulado"},
		{"Engenharia Civil", "Perícia de Engenharia", "R$ 1.000,00", "R$ 2.000,00", "tabela-a:12"},
		{"linha incompleta", "", "sem valor", "tampouco", "x"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))

	table, err := LoadTable(path)

	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	enr, err := table.Enrich(pipeline.Expert{}, "engenharia", "R$ 1.200,00")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusOK, enr.Status)
	assert.Equal(t, "tabela-a:12", enr.TabulatedRef)
}
