package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segResult(dt DocType, start, end int, pass bool, values map[string]string) *SegmentResult {
	r := &SegmentResult{
		DocType:       dt,
		PageStart:     start,
		PageEnd:       end,
		Fields:        emptyFieldMap(dt),
		ValidatorPass: pass,
		Selected:      true,
	}
	for field, value := range values {
		r.Fields[field] = &FinalFieldValue{Value: value, DocType: dt}
	}
	return r
}

func TestBuildDocIndexPrefersValidatedWithCoverage(t *testing.T) {
	weak := segResult(DocDespacho, 1, 2, false, map[string]string{
		FieldPerito: "Maria da Silva",
	})
	strong := segResult(DocDespacho, 5, 6, true, map[string]string{
		FieldProcessoAdministrativo: "0801234562023",
		FieldPerito:                 "Maria da Silva",
		FieldValorArbitradoDE:       "R$ 1.500,00",
	})

	idx, errs := buildDocIndex([]*SegmentResult{weak, strong})

	require.Len(t, idx[DocDespacho], 2)
	assert.Same(t, strong, idx.primary(DocDespacho))
	assert.True(t, hasErrorCode(errs, ErrDocPrimarySelected))
	assert.True(t, hasEvidence(strong.Evidence, MethodDocPrimarySelected))
	assert.True(t, hasEvidence(weak.Evidence, MethodDocPrimarySkipped))
}

func TestBuildDocIndexIgnoresUnknown(t *testing.T) {
	idx, errs := buildDocIndex([]*SegmentResult{
		segResult(DocUnknown, 1, 1, false, nil),
	})

	assert.Empty(t, idx)
	assert.Empty(t, errs)
}

func TestAggregateFinalFieldsDocOrder(t *testing.T) {
	p := New(Collaborators{}, false)
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldPromovente: "JOSE AUGUSTO LIMA",
		FieldPerito:     "Maria da Silva",
	})
	requerimento := segResult(DocRequerimento, 3, 3, true, map[string]string{
		FieldPromovente: "BANCO DO ESTADO SA",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho, requerimento})

	final, errs := p.aggregateFinalFields(idx)

	assert.Empty(t, errs)
	// PROMOVENTE consults the requerimento before the despacho.
	assert.Equal(t, "BANCO DO ESTADO SA", final[FieldPromovente].Value)
	assert.Equal(t, "Maria da Silva", final[FieldPerito].Value)
}

func TestAggregateFinalFieldsNonValidatedFallback(t *testing.T) {
	p := New(Collaborators{}, false)
	despacho := segResult(DocDespacho, 1, 2, false, map[string]string{
		FieldPerito: "Maria da Silva",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho})

	final, errs := p.aggregateFinalFields(idx)

	assert.Equal(t, "Maria da Silva", final[FieldPerito].Value)
	assert.True(t, hasErrorCode(errs, ErrDocFieldFallbackNonvalidated))
}

func TestAggregateFinalFieldsStrictCrossDocumentAmbiguity(t *testing.T) {
	p := New(Collaborators{}, true)
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldPerito: "Maria da Silva",
	})
	certidao := segResult(DocCertidao, 4, 5, true, map[string]string{
		FieldPerito: "Joana Pereira",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho, certidao})

	final, errs := p.aggregateFinalFields(idx)

	// The preference order keeps the despacho value; the spread is recorded.
	assert.Equal(t, "Maria da Silva", final[FieldPerito].Value)
	assert.True(t, hasErrorCode(errs, ErrAmbiguousMatchResolved))
}

func TestApplyFinalArbitradoCertidaoWins(t *testing.T) {
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldValorArbitradoDE:   "R$ 1.000,00",
		FieldDataArbitradoFinal: "2023-01-05",
	})
	certidao := segResult(DocCertidao, 4, 5, true, map[string]string{
		FieldValorArbitradoCM:   "R$ 1.800,00",
		FieldDataArbitradoFinal: "2023-03-10",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho, certidao})
	final := map[string]*FinalFieldValue{
		FieldValorArbitradoFinal: {},
		FieldDataArbitradoFinal:  {},
	}

	errs := applyFinalArbitrado(final, idx)

	assert.Empty(t, errs)
	assert.Equal(t, "R$ 1.800,00", final[FieldValorArbitradoFinal].Value)
	assert.Equal(t, "2023-03-10", final[FieldDataArbitradoFinal].Value)
}

func TestApplyFinalArbitradoDespachoFallback(t *testing.T) {
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldValorArbitradoDE: "R$ 1.000,00",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho})
	final := map[string]*FinalFieldValue{
		FieldValorArbitradoFinal: {},
		FieldDataArbitradoFinal:  {},
	}

	errs := applyFinalArbitrado(final, idx)

	assert.Empty(t, errs)
	assert.Equal(t, "R$ 1.000,00", final[FieldValorArbitradoFinal].Value)
	assert.True(t, final[FieldDataArbitradoFinal].Empty())
}

func TestApplyFinalArbitradoCertidaoDateOnlyStillWins(t *testing.T) {
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldValorArbitradoDE:   "R$ 1.000,00",
		FieldDataArbitradoFinal: "2023-01-05",
	})
	certidao := segResult(DocCertidao, 4, 5, true, map[string]string{
		FieldDataArbitradoFinal: "2023-03-10",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho, certidao})
	final := map[string]*FinalFieldValue{
		FieldValorArbitradoFinal: {},
		FieldDataArbitradoFinal:  {},
	}

	errs := applyFinalArbitrado(final, idx)

	assert.Equal(t, "2023-03-10", final[FieldDataArbitradoFinal].Value)
	assert.True(t, final[FieldValorArbitradoFinal].Empty())
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNotFound, errs[0].Code)
}

func TestApplyFinalArbitradoNothingAvailable(t *testing.T) {
	final := map[string]*FinalFieldValue{
		FieldValorArbitradoFinal: {},
		FieldDataArbitradoFinal:  {},
	}

	errs := applyFinalArbitrado(final, docIndex{})

	require.Len(t, errs, 1)
	assert.Equal(t, ErrNotFound, errs[0].Code)
	assert.Equal(t, FieldValorArbitradoFinal, errs[0].Field)
}

func honorariosIndex(values map[string]string) docIndex {
	idx, _ := buildDocIndex([]*SegmentResult{segResult(DocDespacho, 1, 2, true, values)})
	return idx
}

func honorariosFinal() map[string]*FinalFieldValue {
	final := map[string]*FinalFieldValue{}
	for _, field := range DeclaredFields() {
		final[field] = &FinalFieldValue{}
	}
	return final
}

func TestComputeHonorariosDerivedNoDespacho(t *testing.T) {
	p := New(Collaborators{Fees: fakeFees{}}, false)

	assert.Empty(t, p.computeHonorariosDerived(honorariosFinal(), docIndex{}))
}

func TestComputeHonorariosDerivedMissingJZ(t *testing.T) {
	p := New(Collaborators{Fees: fakeFees{}}, false)
	idx := honorariosIndex(map[string]string{FieldPerito: "Maria da Silva"})

	errs := p.computeHonorariosDerived(honorariosFinal(), idx)

	assert.True(t, hasErrorCode(errs, ErrHonorariosMissingJZ))
}

func TestComputeHonorariosDerivedJZFromRequerimento(t *testing.T) {
	enriched := fakeFees{enr: FeeEnrichment{Status: StatusOK, TabulatedRef: "tabela-a:12"}}
	p := New(Collaborators{Fees: enriched}, false)
	despacho := segResult(DocDespacho, 1, 2, true, map[string]string{
		FieldPerito: "Maria da Silva",
	})
	requerimento := segResult(DocRequerimento, 3, 3, true, map[string]string{
		FieldValorArbitradoJZ: "R$ 1.500,00",
	})
	idx, _ := buildDocIndex([]*SegmentResult{despacho, requerimento})
	final := honorariosFinal()
	final[FieldValorArbitradoJZ].Value = "R$ 1.500,00"

	errs := p.computeHonorariosDerived(final, idx)

	assert.Empty(t, errs)
	assert.Equal(t, "tabela-a:12", final[FieldValorArbitradoJZ].TabulatedRef)
}

func TestComputeHonorariosDerivedMissingPerito(t *testing.T) {
	p := New(Collaborators{Fees: fakeFees{}}, false)
	idx := honorariosIndex(map[string]string{FieldValorArbitradoJZ: "R$ 1.500,00"})

	errs := p.computeHonorariosDerived(honorariosFinal(), idx)

	assert.True(t, hasErrorCode(errs, ErrHonorariosMissingPerito))
}

func TestComputeHonorariosDerivedNoFeeTable(t *testing.T) {
	p := New(Collaborators{}, false)
	idx := honorariosIndex(map[string]string{
		FieldValorArbitradoJZ: "R$ 1.500,00",
		FieldPerito:           "Maria da Silva",
	})

	errs := p.computeHonorariosDerived(honorariosFinal(), idx)

	assert.True(t, hasErrorCode(errs, ErrHonorariosConfigError))
}

func TestComputeHonorariosDerivedEnrichmentError(t *testing.T) {
	p := New(Collaborators{Fees: fakeFees{err: errors.New("workbook corrupt")}}, false)
	idx := honorariosIndex(map[string]string{
		FieldValorArbitradoJZ: "R$ 1.500,00",
		FieldPerito:           "Maria da Silva",
	})

	errs := p.computeHonorariosDerived(honorariosFinal(), idx)

	assert.True(t, hasErrorCode(errs, ErrHonorariosError))
}

func TestComputeHonorariosDerivedNoMatch(t *testing.T) {
	p := New(Collaborators{Fees: fakeFees{enr: FeeEnrichment{Status: "no_match"}}}, false)
	idx := honorariosIndex(map[string]string{
		FieldValorArbitradoJZ: "R$ 1.500,00",
		FieldPerito:           "Maria da Silva",
	})

	errs := p.computeHonorariosDerived(honorariosFinal(), idx)

	assert.True(t, hasErrorCode(errs, ErrHonorariosNoMatch))
}

func TestComputeHonorariosDerivedEnrichmentApplies(t *testing.T) {
	fees := fakeFees{enr: FeeEnrichment{
		Status:          StatusOK,
		Especialidade:   "Engenharia Civil",
		Especie:         "Perícia de Engenharia",
		NormalizedValue: "R$ 1.850,00",
		TabulatedRef:    "tabela-a:12",
		Confidence:      0.8,
	}}
	experts := fakeExperts{expert: Expert{
		Name: "Maria da Silva", CPF: "12345678909", Especialidade: "Engenharia Civil",
	}, found: true}
	p := New(Collaborators{Fees: fees, Experts: experts}, false)
	idx := honorariosIndex(map[string]string{
		FieldValorArbitradoJZ: "2", // bare tabulation factor, not money
		FieldPerito:           "Maria da Silva",
	})
	final := honorariosFinal()
	final[FieldValorArbitradoJZ].Value = "2"
	final[FieldEspecialidade].Value = "engenheiro"

	errs := p.computeHonorariosDerived(final, idx)

	assert.Empty(t, errs)
	assert.Equal(t, "Engenharia Civil", final[FieldEspecialidade].Value)
	assert.Equal(t, MethodHonorarios, final[FieldEspecialidade].Method)
	assert.Equal(t, "Perícia de Engenharia", final[FieldEspecieDaPericia].Value)
	assert.Equal(t, "tabela-a:12", final[FieldValorArbitradoJZ].TabulatedRef)

	// The bare multiplier is replaced by the tabulated money value.
	assert.Equal(t, "R$ 1.850,00", final[FieldValorArbitradoJZ].Value)
	assert.Equal(t, MethodHonorarios, final[FieldValorArbitradoJZ].Method)
}

func TestValidateFinalNamesPartyCollision(t *testing.T) {
	p := New(Collaborators{}, true)
	final := honorariosFinal()
	final[FieldPromovente].Value = "José Augusto Lima"
	final[FieldPromovido].Value = "JOSE AUGUSTO LIMA"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrNameCollision))
	assert.Empty(t, final[FieldPromovente].Value)
	assert.Empty(t, final[FieldPromovido].Value)
}

func TestValidateFinalNamesPeritoCollisionKeepsPerito(t *testing.T) {
	p := New(Collaborators{}, true)
	final := honorariosFinal()
	final[FieldPerito].Value = "Maria da Silva"
	final[FieldPromovente].Value = "MARIA DA SILVA"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrNameCollision))
	assert.Empty(t, final[FieldPromovente].Value)
	assert.Equal(t, "Maria da Silva", final[FieldPerito].Value)
}

func TestValidateFinalNamesLenientKeepsValues(t *testing.T) {
	p := New(Collaborators{}, false)
	final := honorariosFinal()
	final[FieldPromovente].Value = "José Augusto Lima"
	final[FieldPromovido].Value = "JOSE AUGUSTO LIMA"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrNameCollision))
	assert.Equal(t, "José Augusto Lima", final[FieldPromovente].Value)
}

func TestValidateFinalNamesPartyInExpertCatalog(t *testing.T) {
	experts := fakeExperts{expert: Expert{Name: "Maria da Silva"}, found: true}
	p := New(Collaborators{Experts: experts}, true)
	final := honorariosFinal()
	final[FieldPromovente].Value = "Maria da Silva"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrNameInPeritoCatalog))
	assert.Empty(t, final[FieldPromovente].Value)
}

func TestValidateFinalNamesPeritoNotInCatalog(t *testing.T) {
	p := New(Collaborators{Experts: fakeExperts{}}, false)
	final := honorariosFinal()
	final[FieldPerito].Value = "Maria da Silva"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrPeritoNotInCatalog))
}

func TestValidateFinalNamesCatalogError(t *testing.T) {
	p := New(Collaborators{Experts: fakeExperts{err: errors.New("catalog unreadable")}}, false)
	final := honorariosFinal()
	final[FieldPerito].Value = "Maria da Silva"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrPeritoCatalogError))
	assert.False(t, hasErrorCode(errs, ErrPeritoNotInCatalog))
}

func TestValidateFinalNamesSpecialtyMismatch(t *testing.T) {
	experts := fakeExperts{expert: Expert{
		Name: "Maria da Silva", Especialidade: "Engenharia Civil",
	}, found: true}
	p := New(Collaborators{Experts: experts}, true)
	final := honorariosFinal()
	final[FieldPerito].Value = "Maria da Silva"
	final[FieldEspecialidade].Value = "Medicina do Trabalho"

	errs := p.validateFinalNames(final)

	assert.True(t, hasErrorCode(errs, ErrPeritoEspecialidadeMismatch))
	assert.Empty(t, final[FieldEspecialidade].Value)
}
