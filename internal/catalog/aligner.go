package catalog

import (
	"fmt"
	"regexp"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

// anchorSpec aligns one field against a reference model: the anchor regex
// locates the field's label region inside a band, the capture regex pulls the
// value that follows it.
type anchorSpec struct {
	field   string
	band    string
	anchor  *regexp.Regexp
	capture *regexp.Regexp
}

// Models implements pipeline.ModelAligner: a pre-built alignment between the
// text bands of each document type and the fields that type carries.
type Models struct {
	specs map[pipeline.DocType][]anchorSpec
}

// Align matches the segment bands against the reference model for the
// document type. Every located field yields one extracted value.
func (m *Models) Align(docType pipeline.DocType, front, back string) (map[string]pipeline.ExtractedField, error) {
	specs, ok := m.specs[docType]
	if !ok {
		return nil, fmt.Errorf("no alignment model for document type %s", docType)
	}

	out := map[string]pipeline.ExtractedField{}
	for _, spec := range specs {
		band := front
		if spec.band == pipeline.BandBackTail {
			band = back
		}
		loc := spec.anchor.FindStringIndex(band)
		if loc == nil {
			continue
		}
		rest := band[loc[1]:]
		m := spec.capture.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		value := m[0]
		if len(m) > 1 && m[1] != "" {
			value = m[1]
		}
		out[spec.field] = pipeline.ExtractedField{
			Status:    pipeline.StatusOK,
			Value:     cleanCapture(spec.field, value),
			ValueRaw:  m[0],
			ValueFull: band,
		}
	}
	return out, nil
}

// DefaultModels returns the built-in alignment models for the three document
// types.
func DefaultModels() *Models {
	mk := func(field, band, anchor, capture string) anchorSpec {
		return anchorSpec{
			field:   field,
			band:    band,
			anchor:  regexp.MustCompile(anchor),
			capture: regexp.MustCompile(capture),
		}
	}

	// Numeric captures end on a digit so sentence punctuation after a value
	// stays out of it.
	number := `\s*[:\-]?\s*([\d][\d./\-]{5,}\d)`
	money := `\s*[:\-]?\s*(R\$\s*[\d.,]*\d)`
	name := `\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,6})`

	common := []anchorSpec{
		mk(pipeline.FieldProcessoAdministrativo, pipeline.BandFrontHead, `(?i)processo\s+administrativo`, number),
		mk(pipeline.FieldProcessoJudicial, pipeline.BandFrontHead, `(?i)processo(?:\s+judicial)?\s*n?[ºo°.]*`, number),
		mk(pipeline.FieldComarca, pipeline.BandFrontHead, `(?i)comarca\s+d[aeo]`, `\s*([A-ZÀ-Ÿ][\wÀ-ÿ ]{2,60})`),
		mk(pipeline.FieldVara, pipeline.BandFrontHead, `(?i)ju[ií]zo\s+d[aeo]|^`, `\s*(\d{1,2}[ªa]?\s*vara[\wÀ-ÿ ]{0,60})`),
	}

	despacho := append([]anchorSpec{}, common...)
	despacho = append(despacho,
		mk(pipeline.FieldPerito, pipeline.BandFrontHead, `(?i)perit[oa]`, name),
		mk(pipeline.FieldCPFPerito, pipeline.BandFrontHead, `(?i)cpf`, `\s*(?:n[ºo°.]*)?\s*[:\-]?\s*(\d{3}\.?\d{3}\.?\d{3}-?\d{2})`),
		mk(pipeline.FieldValorArbitradoDE, pipeline.BandBackTail, `(?i)arbitr\w+`, money),
		mk(pipeline.FieldDataArbitradoFinal, pipeline.BandBackTail, `(?i)`, `(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})`),
	)

	requerimento := append([]anchorSpec{}, common...)
	requerimento = append(requerimento,
		mk(pipeline.FieldPromovente, pipeline.BandFrontHead, `(?i)promovente`, name),
		mk(pipeline.FieldPromovido, pipeline.BandFrontHead, `(?i)promovid[oa]`, name),
		mk(pipeline.FieldValorArbitradoJZ, pipeline.BandBackTail, `(?i)honor[aá]rios`, money),
		mk(pipeline.FieldDataRequisicao, pipeline.BandBackTail, `(?i)`, `(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})`),
	)

	certidao := append([]anchorSpec{}, common...)
	certidao = append(certidao,
		mk(pipeline.FieldValorArbitradoCM, pipeline.BandBackTail, `(?i)valor\s+(?:arbitrado|homologado)`, money),
		mk(pipeline.FieldAdiantamento, pipeline.BandBackTail, `(?i)adiantamento`, money),
		mk(pipeline.FieldPercentual, pipeline.BandBackTail, `(?i)percentual`, `\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d\s*%?)`),
		mk(pipeline.FieldFator, pipeline.BandBackTail, `(?i)fator`, `\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d)`),
		mk(pipeline.FieldDataArbitradoFinal, pipeline.BandBackTail, `(?i)`, `(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})`),
	)

	return &Models{specs: map[pipeline.DocType][]anchorSpec{
		pipeline.DocDespacho:     despacho,
		pipeline.DocRequerimento: requerimento,
		pipeline.DocCertidao:     certidao,
	}}
}
