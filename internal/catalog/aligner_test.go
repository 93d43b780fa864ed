package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

func TestModelsAlignUnknownDocType(t *testing.T) {
	_, err := DefaultModels().Align(pipeline.DocUnknown, "texto", "texto")

	assert.Error(t, err)
}

func TestModelsAlignDespacho(t *testing.T) {
	front := "PROCESSO ADMINISTRATIVO: 2023.0123.4567 " +
		"Perito: Carlos Alberto Nunes, CPF 123.456.789-09"
	back := "Arbitro os honorários periciais, arbitrados em R$ 1.500,00. " +
		"Belém, 10 de março de 2023"

	fields, err := DefaultModels().Align(pipeline.DocDespacho, front, back)

	require.NoError(t, err)
	assert.Equal(t, "2023.0123.4567", fields[pipeline.FieldProcessoAdministrativo].Value)
	assert.Equal(t, "Carlos Alberto Nunes", fields[pipeline.FieldPerito].Value)
	assert.Equal(t, "123.456.789-09", fields[pipeline.FieldCPFPerito].Value)
	assert.Equal(t, "R$ 1.500,00", fields[pipeline.FieldValorArbitradoDE].Value)
	assert.Equal(t, "10 de março de 2023", fields[pipeline.FieldDataArbitradoFinal].Value)

	for _, f := range fields {
		assert.Equal(t, pipeline.StatusOK, f.Status)
	}
}

func TestModelsAlignCertidaoBackBand(t *testing.T) {
	back := "Valor homologado: R$ 1.800,00, adiantamento de R$ 900,00, " +
		"percentual de 50%, em 12 de abril de 2023"

	fields, err := DefaultModels().Align(pipeline.DocCertidao, "", back)

	require.NoError(t, err)
	assert.Equal(t, "R$ 1.800,00", fields[pipeline.FieldValorArbitradoCM].Value)
	assert.Equal(t, "R$ 900,00", fields[pipeline.FieldAdiantamento].Value)
	assert.Equal(t, "12 de abril de 2023", fields[pipeline.FieldDataArbitradoFinal].Value)
}

func TestModelsAlignAnchorWithoutValue(t *testing.T) {
	// Anchor present, but nothing capturable after it.
	fields, err := DefaultModels().Align(pipeline.DocDespacho, "Perito", "")

	require.NoError(t, err)
	_, ok := fields[pipeline.FieldPerito]
	assert.False(t, ok)
}
