package pipeline

import (
	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
)

const signedFooterText = "ROBSON DE SOUZA Diretor do Foro 10 de março de 2023"

// stubProbe serves canned signature text per page.
type stubProbe struct {
	texts map[int]string
}

func (s stubProbe) SignatureCandidates(_ string, page int) ([]signature.Candidate, error) {
	text := s.texts[page]
	if text == "" {
		return nil, nil
	}
	return []signature.Candidate{
		{StreamID: page, Text: text, Source: signature.SourceFooterProbeText},
	}, nil
}

func stubFinder(texts map[int]string) *signature.Finder {
	return signature.NewFinder(nil, stubProbe{texts: texts})
}

func emptyHits() DocHits {
	return DocHits{
		Bookmarks:       map[int]string{},
		ContentsPrefix:  map[int]bool{},
		HeaderLabels:    map[int]bool{},
		LargestContents: map[int]DocType{},
	}
}

// page builds a PageInfo with a content stream and optional title.
func page(num int, title string) PageInfo {
	return PageInfo{
		Page:          num,
		TitleText:     title,
		HeadText:      title,
		BodyPrefix:    title,
		BodySuffix:    "corpo do documento",
		BodyStreamID:  num,
		BodyTextOps:   120,
		BodyStreamLen: 900,
	}
}

func emptyPage(num int) PageInfo {
	return PageInfo{Page: num}
}

type fakeAligner struct {
	byType map[DocType]map[string]ExtractedField
	err    error
	panics bool
}

func (f fakeAligner) Align(dt DocType, _, _ string) (map[string]ExtractedField, error) {
	if f.panics {
		panic("aligner blew up")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.byType[dt], nil
}

type fakeTemplates struct {
	byBand map[string]map[string]ExtractedField
	err    error
}

func (f fakeTemplates) MatchTemplate(_ DocType, _, bandName string) (map[string]ExtractedField, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byBand[bandName], nil
}

type fakeTextOps struct {
	front map[string]ExtractedField
	back  map[string]ExtractedField
	err   error
}

func (f fakeTextOps) TextOpsFields(_ string, _ *DocSegment) (map[string]ExtractedField, map[string]ExtractedField, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.front, f.back, nil
}

type fakeStrategies struct {
	cands []FieldCandidate
	err   error
}

func (f fakeStrategies) Run(DocType, string) ([]FieldCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cands, nil
}

type fakeSpecialties struct {
	matches []SpecialtyMatch
}

func (f fakeSpecialties) SpecialtyCandidates(string) []SpecialtyMatch {
	return f.matches
}

type fakeExperts struct {
	expert Expert
	found  bool
	err    error
}

func (f fakeExperts) LookupExpert(string, string) (Expert, bool, error) {
	return f.expert, f.found, f.err
}

type fakeFees struct {
	enr FeeEnrichment
	err error
}

func (f fakeFees) Enrich(Expert, string, string) (FeeEnrichment, error) {
	return f.enr, f.err
}

func okField(value string) ExtractedField {
	return ExtractedField{Status: StatusOK, Value: value, ValueRaw: value}
}

func hasErrorCode(errs []PipelineError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func hasEvidence(items []EvidenceItem, method string) bool {
	for _, it := range items {
		if it.Method == method {
			return true
		}
	}
	return false
}
