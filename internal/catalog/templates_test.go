package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

func TestDefaultTemplatesDespacho(t *testing.T) {
	tpl := DefaultTemplates()

	front, err := tpl.MatchTemplate(pipeline.DocDespacho,
		"Processo Administrativo nº 2023.0123.4567, Perito: Carlos Alberto Nunes, CPF: 123.456.789-09",
		pipeline.BandFrontHead)
	require.NoError(t, err)
	assert.Equal(t, "2023.0123.4567", front[pipeline.FieldProcessoAdministrativo].Value)
	assert.Equal(t, "Carlos Alberto Nunes", front[pipeline.FieldPerito].Value)
	assert.Equal(t, "123.456.789-09", front[pipeline.FieldCPFPerito].Value)

	back, err := tpl.MatchTemplate(pipeline.DocDespacho,
		"arbitrados em R$ 1.500,00, nesta data de 10 de março de 2023",
		pipeline.BandBackTail)
	require.NoError(t, err)
	assert.Equal(t, "R$ 1.500,00", back[pipeline.FieldValorArbitradoDE].Value)
	assert.Equal(t, "10 de março de 2023", back[pipeline.FieldDataArbitradoFinal].Value)
}

func TestMatchTemplateUnknownDocType(t *testing.T) {
	_, err := DefaultTemplates().MatchTemplate(pipeline.DocUnknown, "texto", pipeline.BandFrontHead)

	assert.Error(t, err)
}

func TestMatchTemplateNoMatches(t *testing.T) {
	out, err := DefaultTemplates().MatchTemplate(pipeline.DocCertidao, "sem nada util", pipeline.BandBackTail)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLoadTemplatesMissingFileUsesDefaults(t *testing.T) {
	tpl, err := LoadTemplates(filepath.Join(t.TempDir(), "absent.yml"))

	require.NoError(t, err)
	out, err := tpl.MatchTemplate(pipeline.DocDespacho,
		"Perito: Maria da Silva", pipeline.BandFrontHead)
	require.NoError(t, err)
	assert.Equal(t, "Maria da Silva", out[pipeline.FieldPerito].Value)
}

func TestLoadTemplatesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yml")
	doc := `templates:
  DESPACHO:
    front_head:
      - field: PERITO
        patterns:
          - 'nomeio\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)'
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tpl, err := LoadTemplates(path)
	require.NoError(t, err)

	out, err := tpl.MatchTemplate(pipeline.DocDespacho, "nomeio Maria Silva", pipeline.BandFrontHead)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", out[pipeline.FieldPerito].Value)

	// A loaded catalog replaces the defaults entirely.
	_, err = tpl.MatchTemplate(pipeline.DocCertidao, "texto", pipeline.BandBackTail)
	assert.Error(t, err)
}

func TestLoadTemplatesBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yml")
	doc := `templates:
  DESPACHO:
    front_head:
      - field: PERITO
        patterns: ['[unclosed']
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := LoadTemplates(path)

	assert.Error(t, err)
}
