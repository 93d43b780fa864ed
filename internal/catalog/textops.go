package catalog

import (
	"fmt"
	"regexp"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

// TextExtractor resolves a loader-issued stream handle to its text.
type TextExtractor interface {
	ExtractText(path string, streamID int) (string, error)
}

// TextOps implements pipeline.TextOpsMapper: pre-built despacho field maps
// applied directly to the full text of the segment's first and last streams,
// deeper than the clipped bands the other strategies see.
type TextOps struct {
	extractor TextExtractor
	front     []fieldPattern
	back      []fieldPattern
}

// NewTextOps builds the mapper over a text extractor.
func NewTextOps(extractor TextExtractor) *TextOps {
	mk := func(field string, patterns ...string) fieldPattern {
		fp := fieldPattern{field: field}
		for _, raw := range patterns {
			fp.patterns = append(fp.patterns, regexp.MustCompile(raw))
		}
		return fp
	}
	return &TextOps{
		extractor: extractor,
		front: []fieldPattern{
			mk(pipeline.FieldProcessoAdministrativo,
				`(?i)processo\s+administrativo\s*(?:n[ºo°.]*)?\s*[:\-]?\s*([\d][\d./\-]{5,}\d)`),
			mk(pipeline.FieldProcessoJudicial,
				`\b(\d{7}-?\d{2}\.?\d{4}\.?\d\.?\d{2}\.?\d{4})\b`),
			mk(pipeline.FieldPerito,
				`(?i)perit[oa]\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,5})`),
			mk(pipeline.FieldCPFPerito,
				`(?i)cpf\s*(?:n[ºo°.]*)?\s*[:\-]?\s*(\d{3}\.?\d{3}\.?\d{3}-?\d{2})`),
		},
		back: []fieldPattern{
			mk(pipeline.FieldValorArbitradoDE,
				`(?i)arbitr\w+\s+(?:em|no valor de)\s+(R\$\s*[\d.,]*\d)`),
			mk(pipeline.FieldValorArbitradoJZ,
				`(?i)(?:fixo|fixad\w+|arbitrad\w+)[\wÀ-ÿ\s,]{0,40}?(R\$\s*[\d.,]*\d)`),
			mk(pipeline.FieldDataArbitradoFinal,
				`(?i)\b(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})\b`),
		},
	}
}

// TextOpsFields extracts the despacho front and back field maps from the
// segment's first and last content streams.
func (t *TextOps) TextOpsFields(path string, seg *pipeline.DocSegment) (map[string]pipeline.ExtractedField, map[string]pipeline.ExtractedField, error) {
	frontText, err := t.extractor.ExtractText(path, seg.PageStart)
	if err != nil {
		return nil, nil, fmt.Errorf("front stream: %w", err)
	}
	backText := frontText
	if seg.PageEnd != seg.PageStart {
		backText, err = t.extractor.ExtractText(path, seg.PageEnd)
		if err != nil {
			return nil, nil, fmt.Errorf("back stream: %w", err)
		}
	}
	return applyMap(t.front, frontText, seg.PageStart),
		applyMap(t.back, backText, seg.PageEnd), nil
}

func applyMap(specs []fieldPattern, text string, page int) map[string]pipeline.ExtractedField {
	out := map[string]pipeline.ExtractedField{}
	for _, fp := range specs {
		for _, re := range fp.patterns {
			loc := re.FindStringSubmatchIndex(text)
			if loc == nil {
				continue
			}
			m := re.FindStringSubmatch(text)
			value := m[0]
			if len(m) > 1 && m[1] != "" {
				value = m[1]
			}
			out[fp.field] = pipeline.ExtractedField{
				Status:   pipeline.StatusOK,
				Value:    cleanCapture(fp.field, value),
				ValueRaw: m[0],
				OpRange:  fmt.Sprintf("%d-%d", loc[0], loc[1]),
				Page:     page,
				StreamID: page,
			}
			break
		}
	}
	return out
}
