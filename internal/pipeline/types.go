// Package pipeline implements the segmentation-and-resolution core for court
// administrative PDF bundles: page evidence collection, document-type
// resolution, segmentation, validation and selection, multi-strategy field
// candidate collection, field resolution and cross-document aggregation.
package pipeline

import (
	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
)

// Evidence method tags. A closed set: conflict resolution keys off these, the
// strings themselves only appear in audit output.
const (
	MethodBookmark           = "bookmark"
	MethodBookmarkSegment    = "bookmark_segment"
	MethodContentsTitle      = "contents_title"
	MethodContentsPrefix     = "contentsprefix"
	MethodHeaderLabel        = "headerlabel"
	MethodLargestContents    = "largestcontents"
	MethodContentsMissing    = "contents_missing"
	MethodDespachoConfirm    = "despacho_confirm"
	MethodDespachoFollowup   = "despacho_followup_page"
	MethodDocTypeConflict    = "doc_type_conflict"
	MethodDocGapFill         = "doc_gap_fill"
	MethodSignatureFooter    = "signature_footer"
	MethodSegmentLength      = "segment_length"
	MethodDocScore           = "doc_score"
	MethodDocCandidate       = "doc_candidate"
	MethodDocPrimarySelected = "doc_primary_selected"
	MethodDocPrimarySkipped  = "doc_primary_skipped"
)

// Candidate strategy methods and sources.
const (
	MethodAlignRange  = "alignrange"
	MethodTemplate    = "template"
	MethodTextOpsFront = "textops_front"
	MethodTextOpsBack  = "textops_back"
	MethodHonorarios  = "honorarios"

	SourceTextOps  = "textops"
	SourceStrategy = "strategy"
	BandFrontHead  = "front_head"
	BandBackTail   = "back_tail"
)

// Error codes.
const (
	ErrDocTypeConflict             = "DOC_TYPE_CONFLICT"
	ErrDespachoTooShort            = "DESPACHO_TOO_SHORT"
	ErrDespachoSignatureMissing    = "DESPACHO_SIGNATURE_MISSING"
	ErrDocTooLong                  = "DOC_TOO_LONG"
	ErrDocTypeUnknown              = "DOC_TYPE_UNKNOWN"
	ErrContentsMissing             = "CONTENTS_MISSING"
	ErrDocHintMissing              = "DOC_HINT_MISSING"
	ErrModelNotFound               = "MODEL_NOT_FOUND"
	ErrAlignRangeFailed            = "ALIGNRANGE_FAILED"
	ErrTemplateMissing             = "TEMPLATE_MISSING"
	ErrSignatureDateNotFound       = "SIGNATURE_DATE_NOT_FOUND"
	ErrStrategyTextEmpty           = "STRATEGY_TEXT_EMPTY"
	ErrStrategyConfigError         = "STRATEGY_CONFIG_ERROR"
	ErrTextOpsFailed               = "TEXTOPS_FAILED"
	ErrNotFound                    = "NOT_FOUND"
	ErrInvalidFormat               = "INVALID_FORMAT"
	ErrAmbiguousMatch              = "AMBIGUOUS_MATCH"
	ErrAmbiguousMatchResolved      = "AMBIGUOUS_MATCH_RESOLVED"
	ErrDocPrimarySelected          = "DOC_PRIMARY_SELECTED"
	ErrDocFieldFallbackNonvalidated = "DOC_FIELD_FALLBACK_NONVALIDATED"
	ErrHonorariosMissingJZ         = "HONORARIOS_MISSING_JZ"
	ErrHonorariosMissingPerito     = "HONORARIOS_MISSING_PERITO"
	ErrHonorariosError             = "HONORARIOS_ERROR"
	ErrHonorariosConfigError       = "HONORARIOS_CONFIG_ERROR"
	ErrHonorariosNoMatch           = "HONORARIOS_NO_MATCH"
	ErrNameCollision               = "NAME_COLLISION"
	ErrNameInPeritoCatalog         = "NAME_IN_PERITO_CATALOG"
	ErrPeritoNotInCatalog          = "PERITO_NOT_IN_CATALOG"
	ErrPeritoEspecialidadeMismatch = "PERITO_ESPECIALIDADE_MISMATCH"
	ErrPeritoCatalogError          = "PERITO_CATALOG_ERROR"
	ErrPipelineException           = "PIPELINE_EXCEPTION"
)

// EvidenceItem is one tagged signal about a page or segment.
type EvidenceItem struct {
	Method   string  `json:"method"`
	DocType  DocType `json:"doc_type,omitempty"`
	Page     int     `json:"page,omitempty"`
	Matched  string  `json:"matched,omitempty"`
	PathRef  string  `json:"path_ref,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	OpRange  string  `json:"op_range,omitempty"`
	StreamID int     `json:"stream_id,omitempty"`
}

// PageInfo is the per-page classification record supplied by the upstream
// page classifier (an external collaborator).
type PageInfo struct {
	Page          int    `json:"page"`
	TitleText     string `json:"title_text,omitempty"`
	HeadText      string `json:"head_text,omitempty"`
	TailText      string `json:"tail_text,omitempty"`
	BodyPrefix    string `json:"body_prefix,omitempty"`
	BodySuffix    string `json:"body_suffix,omitempty"`
	BodyStreamID  int    `json:"body_stream_id,omitempty"`
	BodyTextOps   int    `json:"body_text_ops,omitempty"`
	BodyStreamLen int    `json:"body_stream_len,omitempty"`
}

// DocHits carries the four precomputed whole-document detector signals.
type DocHits struct {
	Bookmarks       map[int]string  // page -> bookmark title
	ContentsPrefix  map[int]bool    // pages whose body prefix matched the despacho opening
	HeaderLabels    map[int]bool    // pages carrying a despacho header label
	LargestContents map[int]DocType // fallback classification from the largest content stream
}

// ResolvedPage is a page after evidence building and type resolution.
type ResolvedPage struct {
	Info     PageInfo
	DocType  DocType
	Evidence []EvidenceItem
}

// DocSegment is a contiguous page range assigned one document type.
type DocSegment struct {
	DocType         DocType          `json:"doc_type"`
	PageStart       int              `json:"page_start"`
	PageEnd         int              `json:"page_end"`
	PrimaryStreamID int              `json:"primary_stream_id,omitempty"`
	Evidence        []EvidenceItem   `json:"evidence,omitempty"`
	Signature       *signature.Check `json:"signature,omitempty"`
	Selected        bool             `json:"selected"`
	ValidatorPass   bool             `json:"validator_pass"`
	ValidatorReason string           `json:"validator_reason,omitempty"`
	Score           float64          `json:"score,omitempty"`
}

// PageCount returns the number of pages the segment spans.
func (s *DocSegment) PageCount() int {
	return s.PageEnd - s.PageStart + 1
}

// BoundingBox is an optional page-space rectangle for a matched value.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FieldCandidate is one strategy's proposed value for one field. Immutable
// once produced.
type FieldCandidate struct {
	Field       string       `json:"field"`
	Value       string       `json:"value"`
	ValueRaw    string       `json:"value_raw,omitempty"`
	ValueFull   string       `json:"value_full,omitempty"`
	Source      string       `json:"source,omitempty"`
	OpRange     string       `json:"op_range,omitempty"`
	StreamID    int          `json:"stream_id,omitempty"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	Page        int          `json:"page,omitempty"`
	Method      string       `json:"method"`
	DocType     DocType      `json:"doc_type,omitempty"`
	Confidence  float64      `json:"confidence"`
}

// FinalFieldValue is the resolved output for one field. An empty Value
// encodes "not resolved"; provenance fields may still be populated.
type FinalFieldValue struct {
	Value          string       `json:"value"`
	ValueRaw       string       `json:"value_raw,omitempty"`
	ValueFull      string       `json:"value_full,omitempty"`
	Source         string       `json:"source,omitempty"`
	OpRange        string       `json:"op_range,omitempty"`
	StreamID       int          `json:"stream_id,omitempty"`
	BoundingBox    *BoundingBox `json:"bounding_box,omitempty"`
	Page           int          `json:"page,omitempty"`
	DocType        DocType      `json:"doc_type,omitempty"`
	Confidence     float64      `json:"confidence,omitempty"`
	Method         string       `json:"method,omitempty"`
	AnchorsMatched []string     `json:"anchors_matched,omitempty"`
	TabulatedRef   string       `json:"tabulated_ref,omitempty"`
}

// Empty reports whether the field resolved to no value.
func (f *FinalFieldValue) Empty() bool {
	return f == nil || f.Value == ""
}

// PipelineError is a diagnostic record. Errors accumulate; they never abort
// sibling work.
type PipelineError struct {
	Code         string           `json:"code"`
	Field        string           `json:"field,omitempty"`
	Message      string           `json:"message"`
	TriedMethods []string         `json:"tried_methods,omitempty"`
	Candidates   []FieldCandidate `json:"candidates,omitempty"`
}

// SegmentResult is the per-document extraction outcome for one segment.
type SegmentResult struct {
	DocType         DocType                     `json:"doc_type"`
	PageStart       int                         `json:"page_start"`
	PageEnd         int                         `json:"page_end"`
	Fields          map[string]*FinalFieldValue `json:"fields"`
	Errors          []PipelineError             `json:"errors,omitempty"`
	Evidence        []EvidenceItem              `json:"evidence,omitempty"`
	ValidatorPass   bool                        `json:"validator_pass"`
	ValidatorReason string                      `json:"validator_reason,omitempty"`
	Score           float64                     `json:"score,omitempty"`
	Selected        bool                        `json:"selected"`
}

// FinalizeOutput is the complete result for one document bundle.
type FinalizeOutput struct {
	Path        string                      `json:"path"`
	Name        string                      `json:"name"`
	TotalPages  int                         `json:"total_pages"`
	Strict      bool                        `json:"strict"`
	GeneratedAt string                      `json:"generated_at"`
	Documents   []*SegmentResult            `json:"documents"`
	FinalFields map[string]*FinalFieldValue `json:"final_fields"`
	Errors      []PipelineError             `json:"errors,omitempty"`
}
