package pipeline

import (
	"fmt"
	"path/filepath"
	"time"
)

// Pipeline runs the full finalize flow for one document bundle. It holds no
// per-document state: the same instance may process independent documents
// from concurrent goroutines as long as the collaborators are read-only.
type Pipeline struct {
	collab Collaborators
	strict bool
	now    func() time.Time
}

// New builds a pipeline over the supplied collaborators. Strict mode converts
// ambiguity and collision findings into nulled values.
func New(collab Collaborators, strict bool) *Pipeline {
	return &Pipeline{collab: collab, strict: strict, now: time.Now}
}

// Run executes the pipeline for one document. A panic anywhere still yields a
// well-formed output with empty fields and a single exception error; errors
// never propagate past the document boundary.
func (p *Pipeline) Run(path string, pages []PageInfo, hits DocHits) (out *FinalizeOutput) {
	defer func() {
		if r := recover(); r != nil {
			out = p.failureOutput(path, len(pages), r)
		}
	}()

	out = p.newOutput(path, len(pages))

	resolved, errs := ResolvePages(path, pages, hits, p.collab.Signature)
	segments := SegmentPages(resolved, hits)
	errs = append(errs, ValidateSegments(path, segments, p.collab.Signature)...)
	SelectBestSegments(segments, resolved)

	var extracted []*SegmentResult
	for _, seg := range segments {
		var result *SegmentResult
		if seg.Selected {
			result = p.ExtractSegment(path, seg, resolved)
			if seg.DocType != DocUnknown {
				extracted = append(extracted, result)
			}
		} else {
			result = auditResult(seg)
		}
		out.Documents = append(out.Documents, result)
	}

	idx, finalErrs := buildDocIndex(extracted)
	final, aggErrs := p.aggregateFinalFields(idx)
	finalErrs = append(finalErrs, aggErrs...)
	finalErrs = append(finalErrs, applyFinalArbitrado(final, idx)...)
	finalErrs = append(finalErrs, p.computeHonorariosDerived(final, idx)...)
	finalErrs = append(finalErrs, p.validateFinalNames(final)...)

	out.FinalFields = final
	out.Errors = append(errs, finalErrs...)
	return out
}

// Segment runs page resolution, segmentation, validation and selection
// without field extraction. Used by callers that only need the document map.
func (p *Pipeline) Segment(path string, pages []PageInfo, hits DocHits) ([]*DocSegment, []PipelineError) {
	resolved, errs := ResolvePages(path, pages, hits, p.collab.Signature)
	segments := SegmentPages(resolved, hits)
	errs = append(errs, ValidateSegments(path, segments, p.collab.Signature)...)
	SelectBestSegments(segments, resolved)
	return segments, errs
}

func (p *Pipeline) newOutput(path string, totalPages int) *FinalizeOutput {
	return &FinalizeOutput{
		Path:        path,
		Name:        filepath.Base(path),
		TotalPages:  totalPages,
		Strict:      p.strict,
		GeneratedAt: p.now().UTC().Format(time.RFC3339),
		FinalFields: map[string]*FinalFieldValue{},
	}
}

// auditResult records a non-selected segment without running extraction:
// all declared fields present and empty, evidence retained.
func auditResult(seg *DocSegment) *SegmentResult {
	return &SegmentResult{
		DocType:         seg.DocType,
		PageStart:       seg.PageStart,
		PageEnd:         seg.PageEnd,
		Fields:          emptyFieldMap(seg.DocType),
		Evidence:        seg.Evidence,
		ValidatorPass:   seg.ValidatorPass,
		ValidatorReason: seg.ValidatorReason,
		Score:           seg.Score,
		Selected:        false,
	}
}

func (p *Pipeline) failureOutput(path string, totalPages int, cause any) *FinalizeOutput {
	out := p.newOutput(path, totalPages)
	for _, field := range DeclaredFields() {
		out.FinalFields[field] = &FinalFieldValue{}
	}
	out.Errors = []PipelineError{{
		Code:    ErrPipelineException,
		Message: fmt.Sprintf("unhandled failure while processing %s: %v", filepath.Base(path), cause),
	}}
	return out
}
