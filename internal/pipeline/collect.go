package pipeline

import (
	"fmt"
	"strings"

	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Strategy confidences are fixed per extraction family.
const (
	confAlignRange = 0.9
	confTemplate   = 0.9
	confTextOps    = 0.75
	confSignature  = 0.85
	confHonorarios = 0.8
)

// ExtractedField is one field slot produced by an alignment, template or
// textops collaborator.
type ExtractedField struct {
	Status      string       `json:"status"`
	Value       string       `json:"value"`
	ValueRaw    string       `json:"value_raw,omitempty"`
	ValueFull   string       `json:"value_full,omitempty"`
	OpRange     string       `json:"op_range,omitempty"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	Page        int          `json:"page,omitempty"`
	StreamID    int          `json:"stream_id,omitempty"`
}

// StatusOK marks a successful collaborator extraction.
const StatusOK = "ok"

// ModelAligner aligns a segment's text bands against a reference model of the
// same document type.
type ModelAligner interface {
	Align(docType DocType, front, back string) (map[string]ExtractedField, error)
}

// TemplateMatcher applies a per-document-type field template to one band.
type TemplateMatcher interface {
	MatchTemplate(docType DocType, band, bandName string) (map[string]ExtractedField, error)
}

// TextOpsMapper runs the pre-built despacho front/back field maps directly
// against a document's content streams.
type TextOpsMapper interface {
	TextOpsFields(path string, seg *DocSegment) (front, back map[string]ExtractedField, err error)
}

// StrategyEngine runs generic regex/contextual rules over segment text,
// yielding candidates carrying each rule's own confidence.
type StrategyEngine interface {
	Run(docType DocType, text string) ([]FieldCandidate, error)
}

// SpecialtyMatch is one expert-specialty vocabulary hit in segment text.
type SpecialtyMatch struct {
	Especialidade string
	Especie       string
	Matched       string
}

// SpecialtyMatcher scans text for known expert-specialty vocabulary.
type SpecialtyMatcher interface {
	SpecialtyCandidates(text string) []SpecialtyMatch
}

// Expert is a catalog entry mapping an expert identity to a registered
// specialty.
type Expert struct {
	Name          string
	CPF           string
	Especialidade string
}

// ExpertCatalog is the external curated lookup table for experts.
type ExpertCatalog interface {
	LookupExpert(name, cpf string) (Expert, bool, error)
}

// FeeEnrichment is the outcome of a fee-table lookup.
type FeeEnrichment struct {
	Status          string
	Especialidade   string
	Especie         string
	NormalizedValue string
	TabulatedRef    string
	Confidence      float64
}

// FeeEnricher resolves the tabulated fee reference for an expert identity,
// specialty and base value.
type FeeEnricher interface {
	Enrich(expert Expert, especialidade, baseValue string) (FeeEnrichment, error)
}

// Collaborators bundles every external dependency the pipeline consumes.
// Missing entries degrade to recorded errors, never to aborts.
type Collaborators struct {
	Signature   *signature.Finder
	Aligner     ModelAligner
	Templates   TemplateMatcher
	TextOps     TextOpsMapper
	Strategies  StrategyEngine
	Specialties SpecialtyMatcher
	Experts     ExpertCatalog
	Fees        FeeEnricher
}

// segmentBands derives the front and back text bands from a segment's pages.
func segmentBands(seg *DocSegment, pages []ResolvedPage) (front, back string) {
	inRange := pagesInRange(pages, seg.PageStart, seg.PageEnd)
	if len(inRange) == 0 {
		return "", ""
	}
	first, last := inRange[0].Info, inRange[len(inRange)-1].Info
	front = textnorm.NormalizeWhitespace(first.HeadText + " " + first.BodyPrefix)
	back = textnorm.NormalizeWhitespace(last.BodySuffix + " " + last.TailText)
	return front, back
}

// ExtractSegment runs every candidate strategy against one selected segment
// and resolves each declared field. Strategies are independent: a failing one
// records a diagnostic and contributes zero candidates.
func (p *Pipeline) ExtractSegment(path string, seg *DocSegment, pages []ResolvedPage) *SegmentResult {
	result := &SegmentResult{
		DocType:         seg.DocType,
		PageStart:       seg.PageStart,
		PageEnd:         seg.PageEnd,
		Fields:          emptyFieldMap(seg.DocType),
		Evidence:        seg.Evidence,
		ValidatorPass:   seg.ValidatorPass,
		ValidatorReason: seg.ValidatorReason,
		Score:           seg.Score,
		Selected:        seg.Selected,
	}

	if seg.DocType == DocUnknown {
		result.Errors = append(result.Errors, PipelineError{
			Code:    ErrDocTypeUnknown,
			Message: fmt.Sprintf("segment %d-%d has no resolved document type", seg.PageStart, seg.PageEnd),
		})
		return result
	}
	if seg.PrimaryStreamID <= 0 {
		result.Errors = append(result.Errors, PipelineError{
			Code:    ErrContentsMissing,
			Message: fmt.Sprintf("segment %d-%d has no content stream", seg.PageStart, seg.PageEnd),
		})
		return result
	}

	front, back := segmentBands(seg, pages)
	if front == "" && back == "" {
		result.Errors = append(result.Errors, PipelineError{
			Code:    ErrDocHintMissing,
			Message: fmt.Sprintf("segment %d-%d yields no band text", seg.PageStart, seg.PageEnd),
		})
	}
	candidates, errs := p.collectCandidates(path, seg, front, back)
	result.Errors = append(result.Errors, errs...)

	tried := triedMethods(seg.DocType)
	for _, field := range DeclaredFields() {
		value, fieldErrs := p.resolveField(field, candidates[field], seg.DocType, tried, front, back)
		result.Fields[field] = value
		result.Errors = append(result.Errors, fieldErrs...)
	}
	return result
}

func triedMethods(dt DocType) []string {
	tried := []string{MethodAlignRange, MethodTemplate}
	if dt == DocDespacho {
		tried = append(tried, SourceTextOps, MethodSignatureFooter)
	}
	return append(tried, "regex")
}

// collectCandidates gathers the full multiset of field candidates for a
// segment, grouped by field name.
func (p *Pipeline) collectCandidates(path string, seg *DocSegment, front, back string) (map[string][]FieldCandidate, []PipelineError) {
	byField := map[string][]FieldCandidate{}
	var errs []PipelineError

	add := func(c FieldCandidate) {
		c.DocType = seg.DocType
		byField[c.Field] = append(byField[c.Field], c)
	}

	// Structured map-match against the reference model.
	if p.collab.Aligner == nil {
		errs = append(errs, PipelineError{Code: ErrModelNotFound,
			Message: fmt.Sprintf("no reference model available for %s", seg.DocType)})
	} else if aligned, err := p.collab.Aligner.Align(seg.DocType, front, back); err != nil {
		errs = append(errs, PipelineError{Code: ErrAlignRangeFailed,
			Message: fmt.Sprintf("alignment against %s model failed: %v", seg.DocType, err)})
	} else {
		for field, ex := range aligned {
			if ex.Value == "" {
				continue
			}
			add(candidateFrom(field, ex, MethodAlignRange, MethodAlignRange, confAlignRange))
		}
	}

	// Per-band template extraction.
	if p.collab.Templates == nil {
		errs = append(errs, PipelineError{Code: ErrTemplateMissing,
			Message: fmt.Sprintf("no field template registered for %s", seg.DocType)})
	} else {
		for _, band := range []struct{ name, text string }{
			{BandFrontHead, front},
			{BandBackTail, back},
		} {
			matched, err := p.collab.Templates.MatchTemplate(seg.DocType, band.text, band.name)
			if err != nil {
				errs = append(errs, PipelineError{Code: ErrTemplateMissing,
					Message: fmt.Sprintf("template extraction on %s failed: %v", band.name, err)})
				continue
			}
			for field, ex := range matched {
				if ex.Status != StatusOK || ex.Value == "" {
					continue
				}
				add(candidateFrom(field, ex, MethodTemplate, band.name, confTemplate))
			}
		}
	}

	if seg.DocType == DocDespacho {
		p.collectDespachoCandidates(path, seg, add, &errs)
	}

	// Generic strategy engine over the concatenated bands.
	text := textnorm.NormalizeWhitespace(front + " " + back)
	switch {
	case text == "":
		errs = append(errs, PipelineError{Code: ErrStrategyTextEmpty,
			Message: fmt.Sprintf("segment %d-%d has no band text for strategies", seg.PageStart, seg.PageEnd)})
	case p.collab.Strategies == nil:
		errs = append(errs, PipelineError{Code: ErrStrategyConfigError,
			Message: "no strategy engine configured"})
	default:
		cands, err := p.collab.Strategies.Run(seg.DocType, text)
		if err != nil {
			errs = append(errs, PipelineError{Code: ErrStrategyConfigError,
				Message: fmt.Sprintf("strategy engine failed: %v", err)})
			break
		}
		for _, c := range cands {
			if strings.TrimSpace(c.Value) == "" {
				continue
			}
			c.Source = SourceStrategy
			add(c)
		}
	}

	// Specialty vocabulary hits.
	if p.collab.Specialties != nil {
		for _, m := range p.collab.Specialties.SpecialtyCandidates(text) {
			if m.Especialidade != "" {
				add(FieldCandidate{Field: FieldEspecialidade, Value: m.Especialidade,
					ValueRaw: m.Matched, Method: MethodHonorarios, Source: MethodHonorarios,
					Confidence: confHonorarios})
			}
			if m.Especie != "" {
				add(FieldCandidate{Field: FieldEspecieDaPericia, Value: m.Especie,
					ValueRaw: m.Matched, Method: MethodHonorarios, Source: MethodHonorarios,
					Confidence: confHonorarios})
			}
		}
	}

	return byField, errs
}

func (p *Pipeline) collectDespachoCandidates(path string, seg *DocSegment,
	add func(FieldCandidate), errs *[]PipelineError,
) {
	if p.collab.TextOps != nil {
		front, back, err := p.collab.TextOps.TextOpsFields(path, seg)
		if err != nil {
			*errs = append(*errs, PipelineError{Code: ErrTextOpsFailed,
				Message: fmt.Sprintf("textops maps failed: %v", err)})
		} else {
			for field, ex := range front {
				if ex.Value == "" {
					continue
				}
				add(candidateFrom(field, ex, MethodTextOpsFront, SourceTextOps, confTextOps))
			}
			for field, ex := range back {
				if ex.Value == "" {
					continue
				}
				add(candidateFrom(field, ex, MethodTextOpsBack, SourceTextOps, confTextOps))
			}
		}
	}

	if seg.Signature != nil && seg.Signature.Confirmed() && seg.Signature.DateText != "" {
		add(FieldCandidate{
			Field:      FieldDataArbitradoFinal,
			Value:      seg.Signature.DateText,
			ValueRaw:   seg.Signature.DateText,
			ValueFull:  seg.Signature.TextSample,
			Source:     MethodSignatureFooter,
			Method:     MethodSignatureFooter,
			Page:       seg.Signature.Page,
			StreamID:   seg.Signature.StreamID,
			Confidence: confSignature,
		})
	} else {
		*errs = append(*errs, PipelineError{Code: ErrSignatureDateNotFound,
			Field:   FieldDataArbitradoFinal,
			Message: fmt.Sprintf("despacho segment %d-%d has no confirmed signature date", seg.PageStart, seg.PageEnd)})
	}
}

func candidateFrom(field string, ex ExtractedField, method, source string, conf float64) FieldCandidate {
	return FieldCandidate{
		Field:       field,
		Value:       ex.Value,
		ValueRaw:    ex.ValueRaw,
		ValueFull:   ex.ValueFull,
		Source:      source,
		OpRange:     ex.OpRange,
		StreamID:    ex.StreamID,
		BoundingBox: ex.BoundingBox,
		Page:        ex.Page,
		Method:      method,
		Confidence:  conf,
	}
}

func emptyFieldMap(dt DocType) map[string]*FinalFieldValue {
	fields := make(map[string]*FinalFieldValue, len(DeclaredFields()))
	for _, name := range DeclaredFields() {
		fields[name] = &FinalFieldValue{DocType: dt}
	}
	return fields
}
