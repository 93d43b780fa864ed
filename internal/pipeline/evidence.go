package pipeline

import (
	"strings"

	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Heading texts that look like titles but never open one of the tracked
// document types (cover letters, receipts, system banners).
var headingRejectTexts = []string{
	"oficio",
	"a sua senhoria",
	"comunico a vossa senhoria",
	"senhor perito",
	"termo de recebimento",
	"sistema de controle de processos",
}

// Keyword sets per document type, matched against normalized heading text.
// Order matters: certidao must win over the bare "honorarios" keyword that
// also appears in council certificates.
var headingKeywords = []struct {
	docType  DocType
	keywords []string
}{
	{DocCertidao, []string{"certidao"}},
	{DocRequerimento, []string{"requerimento", "honorarios periciais", "requisicao de honorarios"}},
	{DocDespacho, []string{"despacho"}},
}

// ClassifyHeading maps a title or bookmark text to a document type. Reject
// texts force unknown even when a keyword would otherwise match.
func ClassifyHeading(text string) DocType {
	normalized := textnorm.CollapseSpacedLetters(textnorm.NormalizeForMatch(text))
	if normalized == "" {
		return DocUnknown
	}
	for _, reject := range headingRejectTexts {
		if strings.Contains(normalized, reject) {
			return DocUnknown
		}
	}
	for _, entry := range headingKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(normalized, kw) {
				return entry.docType
			}
		}
	}
	return DocUnknown
}

const matchedTextLimit = 80

// BuildPageEvidence collects the tagged signals for one page. It never
// filters: conflicting evidence is kept and resolved downstream.
func BuildPageEvidence(info PageInfo, hits DocHits) []EvidenceItem {
	var items []EvidenceItem

	if info.BodyStreamID <= 0 {
		items = append(items, EvidenceItem{
			Method: MethodContentsMissing,
			Page:   info.Page,
			Reason: "body_stream_missing",
		})
	}

	if title, ok := hits.Bookmarks[info.Page]; ok {
		items = append(items, EvidenceItem{
			Method:  MethodBookmark,
			DocType: ClassifyHeading(title),
			Page:    info.Page,
			Matched: clip(title),
		})
	}

	if info.BodyStreamID <= 0 {
		return items
	}

	if dt := ClassifyHeading(info.TitleText); dt != DocUnknown {
		items = append(items, EvidenceItem{
			Method:   MethodContentsTitle,
			DocType:  dt,
			Page:     info.Page,
			Matched:  clip(info.TitleText),
			StreamID: info.BodyStreamID,
		})
	}

	if hits.ContentsPrefix[info.Page] {
		items = append(items, EvidenceItem{
			Method:   MethodContentsPrefix,
			DocType:  DocDespacho,
			Page:     info.Page,
			Matched:  clip(info.BodyPrefix),
			StreamID: info.BodyStreamID,
		})
	}

	if hits.HeaderLabels[info.Page] {
		items = append(items, EvidenceItem{
			Method:  MethodHeaderLabel,
			DocType: DocDespacho,
			Page:    info.Page,
			Matched: clip(info.HeadText),
		})
	}

	if !hasTypedEvidence(items) {
		if dt, ok := hits.LargestContents[info.Page]; ok && dt != DocUnknown {
			items = append(items, EvidenceItem{
				Method:  MethodLargestContents,
				DocType: dt,
				Page:    info.Page,
				Reason:  "whole_document_fallback",
			})
		}
	}

	return items
}

func hasTypedEvidence(items []EvidenceItem) bool {
	for _, it := range items {
		if it.DocType != "" && it.DocType != DocUnknown {
			return true
		}
	}
	return false
}

func clip(s string) string {
	s = textnorm.NormalizeWhitespace(s)
	r := []rune(s)
	if len(r) > matchedTextLimit {
		return string(r[:matchedTextLimit])
	}
	return s
}
