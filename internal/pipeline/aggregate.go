package pipeline

import (
	"fmt"
	"sort"

	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// docIndex holds, per document type, the extracted results ranked best-first.
type docIndex map[DocType][]*SegmentResult

func (idx docIndex) primary(dt DocType) *SegmentResult {
	if docs := idx[dt]; len(docs) > 0 {
		return docs[0]
	}
	return nil
}

// buildDocIndex groups extracted results by type and ranks same-type
// documents: validated ones first, then by expected-field coverage, score and
// page order. When no document of a type validated, raw score decides.
func buildDocIndex(results []*SegmentResult) (docIndex, []PipelineError) {
	idx := docIndex{}
	var errs []PipelineError

	for _, r := range results {
		if r.DocType == DocUnknown {
			continue
		}
		idx[r.DocType] = append(idx[r.DocType], r)
	}

	for dt, docs := range idx {
		if len(docs) < 2 {
			continue
		}
		anyPass := false
		for _, d := range docs {
			if d.ValidatorPass {
				anyPass = true
				break
			}
		}
		sort.SliceStable(docs, func(i, j int) bool {
			a, b := docs[i], docs[j]
			if anyPass {
				if a.ValidatorPass != b.ValidatorPass {
					return a.ValidatorPass
				}
				if ha, hb := primaryFieldHits(a), primaryFieldHits(b); ha != hb {
					return ha > hb
				}
				if aa, ab := allowedFieldHits(a), allowedFieldHits(b); aa != ab {
					return aa > ab
				}
			}
			if sa, sb := scorePrimaryDocument(a), scorePrimaryDocument(b); sa != sb {
				return sa > sb
			}
			return a.PageStart < b.PageStart
		})

		winner := docs[0]
		winner.Evidence = append(winner.Evidence, EvidenceItem{
			Method:  MethodDocPrimarySelected,
			DocType: dt,
			Page:    winner.PageStart,
			Reason:  fmt.Sprintf("candidates=%d score=%d", len(docs), scorePrimaryDocument(winner)),
		})
		for _, d := range docs[1:] {
			d.Evidence = append(d.Evidence, EvidenceItem{
				Method:  MethodDocPrimarySkipped,
				DocType: dt,
				Page:    d.PageStart,
				Reason:  fmt.Sprintf("lost_to=%d-%d", winner.PageStart, winner.PageEnd),
			})
		}
		errs = append(errs, PipelineError{
			Code:    ErrDocPrimarySelected,
			Message: fmt.Sprintf("%d %s documents found, using pages %d-%d", len(docs), dt, winner.PageStart, winner.PageEnd),
		})
	}
	return idx, errs
}

func primaryFieldHits(r *SegmentResult) int {
	hits := 0
	for _, field := range PrimaryFields(r.DocType) {
		if !r.Fields[field].Empty() {
			hits++
		}
	}
	return hits
}

func allowedFieldHits(r *SegmentResult) int {
	hits := 0
	for _, field := range DeclaredFields() {
		if FieldAllowedForDoc(field, r.DocType) && !r.Fields[field].Empty() {
			hits++
		}
	}
	return hits
}

// scorePrimaryDocument combines field coverage, validation outcome, error
// count and position into one ranking number.
func scorePrimaryDocument(r *SegmentResult) int {
	score := primaryFieldHits(r)*1000 + allowedFieldHits(r)*100
	if r.ValidatorPass {
		score += 10000
	} else {
		score -= 1000
	}
	score -= len(r.Errors) * 5
	score -= r.PageStart
	return score
}

// aggregateFinalFields merges per-document resolved fields into one final
// record per declared field, following each field's document preference
// order. Validated documents are consulted before non-validated ones; using a
// non-validated document is recorded as a fallback warning.
func (p *Pipeline) aggregateFinalFields(idx docIndex) (map[string]*FinalFieldValue, []PipelineError) {
	final := make(map[string]*FinalFieldValue, len(DeclaredFields()))
	var errs []PipelineError

	for _, field := range DeclaredFields() {
		final[field] = &FinalFieldValue{}

		var picked *FinalFieldValue
		var pickedDoc *SegmentResult
		distinct := map[string]bool{}

		for _, dt := range FieldDocOrder(field) {
			for _, doc := range idx[dt] {
				value := doc.Fields[field]
				if value.Empty() {
					continue
				}
				distinct[NormalizeCandidateValue(field, value.Value)] = true
				if picked == nil {
					picked = value
					pickedDoc = doc
				}
			}
		}

		if picked == nil {
			continue
		}
		clone := *picked
		final[field] = &clone
		if !pickedDoc.ValidatorPass {
			errs = append(errs, PipelineError{
				Code:  ErrDocFieldFallbackNonvalidated,
				Field: field,
				Message: fmt.Sprintf("%s taken from non-validated %s pages %d-%d",
					field, pickedDoc.DocType, pickedDoc.PageStart, pickedDoc.PageEnd),
			})
		}
		if p.strict && len(distinct) > 1 {
			errs = append(errs, PipelineError{
				Code:    ErrAmbiguousMatchResolved,
				Field:   field,
				Message: fmt.Sprintf("%d distinct values for %s across documents, keeping first by preference order", len(distinct), field),
			})
		}
	}
	return final, errs
}

// applyFinalArbitrado derives the compound final arbitrated value/date pair:
// the council certificate wins, the despacho is the fallback, and with
// neither present the value field resolves empty with a not-found error.
func applyFinalArbitrado(final map[string]*FinalFieldValue, idx docIndex) []PipelineError {
	// The certificate pair wins even when only its date is present.
	doc, valueField := idx.primary(DocCertidao), FieldValorArbitradoCM
	if !hasArbitradoPair(doc, valueField) {
		doc, valueField = idx.primary(DocDespacho), FieldValorArbitradoDE
	}

	valueSet := false
	if hasArbitradoPair(doc, valueField) {
		if valor := doc.Fields[valueField]; !valor.Empty() {
			clone := *valor
			final[FieldValorArbitradoFinal] = &clone
			valueSet = true
		}
		if data := doc.Fields[FieldDataArbitradoFinal]; !data.Empty() {
			clone := *data
			final[FieldDataArbitradoFinal] = &clone
		}
	}
	if valueSet {
		return nil
	}
	return []PipelineError{{
		Code:    ErrNotFound,
		Field:   FieldValorArbitradoFinal,
		Message: "no certificate or despacho arbitrated value available",
	}}
}

func hasArbitradoPair(doc *SegmentResult, valueField string) bool {
	if doc == nil {
		return false
	}
	return !doc.Fields[valueField].Empty() || !doc.Fields[FieldDataArbitradoFinal].Empty()
}

// computeHonorariosDerived runs the fee-table enrichment keyed on the
// despacho's expert identity and the judge-set value, overwriting the
// specialty fields and annotating the tabulated reference when it matches.
func (p *Pipeline) computeHonorariosDerived(final map[string]*FinalFieldValue, idx docIndex) []PipelineError {
	despacho := idx.primary(DocDespacho)
	if despacho == nil {
		return nil
	}

	valorJZ := despacho.Fields[FieldValorArbitradoJZ]
	if valorJZ.Empty() {
		if req := idx.primary(DocRequerimento); req != nil {
			valorJZ = req.Fields[FieldValorArbitradoJZ]
		}
	}
	if valorJZ.Empty() {
		return []PipelineError{{Code: ErrHonorariosMissingJZ,
			Message: "no judge-set value available for fee enrichment"}}
	}

	perito := despacho.Fields[FieldPerito]
	cpf := despacho.Fields[FieldCPFPerito]
	if perito.Empty() && cpf.Empty() {
		return []PipelineError{{Code: ErrHonorariosMissingPerito,
			Message: "no expert identity available for fee enrichment"}}
	}

	if p.collab.Fees == nil {
		return []PipelineError{{Code: ErrHonorariosConfigError,
			Message: "no fee table configured"}}
	}

	expert := Expert{Name: perito.Value, CPF: cpf.Value}
	if p.collab.Experts != nil {
		if found, ok, err := p.collab.Experts.LookupExpert(perito.Value, cpf.Value); err == nil && ok {
			expert = found
		}
	}

	enr, err := p.collab.Fees.Enrich(expert, final[FieldEspecialidade].Value, valorJZ.Value)
	if err != nil {
		return []PipelineError{{Code: ErrHonorariosError,
			Message: fmt.Sprintf("fee enrichment failed: %v", err)}}
	}
	if enr.Status != StatusOK {
		return []PipelineError{{Code: ErrHonorariosNoMatch,
			Message: fmt.Sprintf("fee table has no row for the resolved identity and value (status %s)", enr.Status)}}
	}

	if enr.Especialidade != "" {
		overwriteDerived(final[FieldEspecialidade], enr.Especialidade, enr.Confidence)
	}
	if enr.Especie != "" {
		overwriteDerived(final[FieldEspecieDaPericia], enr.Especie, enr.Confidence)
	}
	final[FieldValorArbitradoJZ].TabulatedRef = enr.TabulatedRef
	if enr.NormalizedValue != "" && looksLikeBareMultiplier(final[FieldValorArbitradoJZ].Value) {
		final[FieldValorArbitradoJZ].Value = enr.NormalizedValue
		final[FieldValorArbitradoJZ].Method = MethodHonorarios
	}
	return nil
}

func overwriteDerived(f *FinalFieldValue, value string, confidence float64) {
	f.Value = value
	f.Method = MethodHonorarios
	f.Source = MethodHonorarios
	f.Confidence = confidence
}

// looksLikeBareMultiplier flags values that cannot be a currency amount, such
// as a lone tabulation factor where money was expected.
func looksLikeBareMultiplier(value string) bool {
	v, ok := textnorm.ParseMoney(value)
	return !ok || v < 10
}

// validateFinalNames applies the cross-field business rules: pairwise name
// collisions and expert-catalog cross-checks. Strict mode nulls the flagged
// non-expert fields; lenient mode only records the findings.
func (p *Pipeline) validateFinalNames(final map[string]*FinalFieldValue) []PipelineError {
	var errs []PipelineError

	perito := final[FieldPerito]
	promovente := final[FieldPromovente]
	promovido := final[FieldPromovido]

	keyOf := func(f *FinalFieldValue) string {
		if f.Empty() {
			return ""
		}
		return textnorm.NormalizeNameKey(f.Value)
	}
	pkey, aKey, bKey := keyOf(perito), keyOf(promovente), keyOf(promovido)

	collide := func(field string, f *FinalFieldValue, other string) {
		errs = append(errs, PipelineError{
			Code:    ErrNameCollision,
			Field:   field,
			Message: fmt.Sprintf("%s matches %s after normalization", field, other),
		})
		if p.strict {
			f.Value = ""
		}
	}
	if aKey != "" && aKey == bKey {
		collide(FieldPromovente, promovente, FieldPromovido)
		collide(FieldPromovido, promovido, FieldPromovente)
	}
	if pkey != "" && pkey == aKey {
		collide(FieldPromovente, promovente, FieldPerito)
	}
	if pkey != "" && pkey == bKey {
		collide(FieldPromovido, promovido, FieldPerito)
	}

	if p.collab.Experts == nil {
		return errs
	}

	catalogErr := false
	lookup := func(name, cpf string) (Expert, bool) {
		expert, ok, err := p.collab.Experts.LookupExpert(name, cpf)
		if err != nil && !catalogErr {
			catalogErr = true
			errs = append(errs, PipelineError{Code: ErrPeritoCatalogError,
				Message: fmt.Sprintf("expert catalog lookup failed: %v", err)})
		}
		return expert, ok && err == nil
	}

	for _, party := range []struct {
		field string
		value *FinalFieldValue
	}{
		{FieldPromovente, promovente},
		{FieldPromovido, promovido},
	} {
		if party.value.Empty() {
			continue
		}
		if _, ok := lookup(party.value.Value, ""); ok {
			errs = append(errs, PipelineError{
				Code:    ErrNameInPeritoCatalog,
				Field:   party.field,
				Message: fmt.Sprintf("%s matches a registered expert name", party.field),
			})
			if p.strict {
				party.value.Value = ""
			}
		}
	}

	if perito.Empty() && final[FieldCPFPerito].Empty() {
		return errs
	}
	expert, ok := lookup(perito.Value, final[FieldCPFPerito].Value)
	if !ok {
		if !catalogErr {
			errs = append(errs, PipelineError{
				Code:    ErrPeritoNotInCatalog,
				Field:   FieldPerito,
				Message: "resolved expert is not in the catalog",
			})
		}
		return errs
	}

	espec := final[FieldEspecialidade]
	if !espec.Empty() && expert.Especialidade != "" &&
		textnorm.NormalizeForMatch(espec.Value) != textnorm.NormalizeForMatch(expert.Especialidade) {
		errs = append(errs, PipelineError{
			Code:    ErrPeritoEspecialidadeMismatch,
			Field:   FieldEspecialidade,
			Message: fmt.Sprintf("resolved specialty %q differs from catalog %q", espec.Value, expert.Especialidade),
		})
		if p.strict {
			espec.Value = ""
		}
	}
	return errs
}
