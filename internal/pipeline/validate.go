package pipeline

import (
	"fmt"

	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Winner-selection score weights.
const (
	scorePageWeight      = 1000.0
	scoreDensityWeight   = 10.0
	scoreWeirdWeight     = 200.0
	scoreBookmarkBonus   = 50.0
	scoreTitleBonus      = 30.0
	scoreSignatureBonus  = 200.0
	densityPerBytesScale = 1000.0
)

// ValidateSegments enforces the per-type structural rules. Despacho segments
// shorter than two pages are demoted to unknown; a despacho without any
// signed-and-dated page anywhere in its range is flagged but kept; any
// over-long segment is flagged non-fatally.
func ValidateSegments(path string, segments []*DocSegment, finder *signature.Finder) []PipelineError {
	var errs []PipelineError

	for _, seg := range segments {
		seg.ValidatorPass = true

		if seg.DocType == DocDespacho {
			if seg.PageCount() < 2 {
				seg.DocType = DocUnknown
				seg.ValidatorPass = false
				seg.ValidatorReason = "despacho_requires_two_pages"
				seg.Evidence = append(seg.Evidence, EvidenceItem{
					Method: "despacho_segment",
					Page:   seg.PageStart,
					Reason: "despacho_requires_two_pages",
				})
				errs = append(errs, PipelineError{
					Code:    ErrDespachoTooShort,
					Message: fmt.Sprintf("despacho segment %d-%d spans fewer than two pages", seg.PageStart, seg.PageEnd),
				})
			} else {
				errs = append(errs, validateDespachoSignature(path, seg, finder)...)
			}
		}

		if max := MaxPages(seg.DocType); max > 0 && seg.PageCount() > max {
			seg.Evidence = append(seg.Evidence, EvidenceItem{
				Method:  MethodSegmentLength,
				DocType: seg.DocType,
				Page:    seg.PageStart,
				Reason:  fmt.Sprintf("pages=%d max=%d", seg.PageCount(), max),
			})
			errs = append(errs, PipelineError{
				Code:    ErrDocTooLong,
				Message: fmt.Sprintf("%s segment %d-%d exceeds %d pages", seg.DocType, seg.PageStart, seg.PageEnd, max),
			})
		}

		if seg.DocType == DocUnknown && seg.ValidatorReason == "" {
			seg.ValidatorPass = false
			seg.ValidatorReason = "doc_type_unknown"
		}
	}
	return errs
}

func validateDespachoSignature(path string, seg *DocSegment, finder *signature.Finder) []PipelineError {
	var best signature.Check
	found := false
	if finder != nil {
		for page := seg.PageStart; page <= seg.PageEnd; page++ {
			check := finder.FindOnPage(path, page)
			if !found || check.Score() > best.Score() {
				best = check
				found = true
			}
			if check.Confirmed() {
				break
			}
		}
	}

	if found && best.Confirmed() {
		seg.Signature = &best
		seg.Evidence = append(seg.Evidence, EvidenceItem{
			Method:   MethodSignatureFooter,
			DocType:  DocDespacho,
			Page:     best.Page,
			Matched:  best.DateText,
			Reason:   best.Status,
			StreamID: best.StreamID,
		})
		return nil
	}

	reason := signature.StatusTextEmpty
	if found {
		reason = best.Status
	}
	seg.ValidatorPass = false
	seg.ValidatorReason = "despacho_signature_missing"
	seg.Evidence = append(seg.Evidence, EvidenceItem{
		Method: MethodSignatureFooter,
		Page:   seg.PageEnd,
		Reason: reason,
	})
	return []PipelineError{{
		Code:    ErrDespachoSignatureMissing,
		Message: fmt.Sprintf("despacho segment %d-%d has no signed and dated page", seg.PageStart, seg.PageEnd),
	}}
}

// SelectBestSegments scores same-type segments against each other and marks
// one winner per type. Lone segments win by default. Losers stay in the
// result with a doc_candidate annotation naming the winner; only winners feed
// field extraction. Ties break on segment order (exact equality only).
func SelectBestSegments(segments []*DocSegment, pages []ResolvedPage) {
	byType := map[DocType][]*DocSegment{}
	for _, seg := range segments {
		seg.Score = scoreSegment(seg, pages)
		byType[seg.DocType] = append(byType[seg.DocType], seg)
	}

	for _, group := range byType {
		if len(group) == 1 {
			group[0].Selected = true
			continue
		}
		winner := group[0]
		for _, seg := range group[1:] {
			if seg.Score > winner.Score {
				winner = seg
			}
		}
		winner.Selected = true
		winner.Evidence = append(winner.Evidence, EvidenceItem{
			Method:  MethodDocScore,
			DocType: winner.DocType,
			Page:    winner.PageStart,
			Reason:  fmt.Sprintf("score=%.1f candidates=%d", winner.Score, len(group)),
		})
		for _, seg := range group {
			if seg == winner {
				continue
			}
			seg.Evidence = append(seg.Evidence, EvidenceItem{
				Method:  MethodDocCandidate,
				DocType: seg.DocType,
				Page:    seg.PageStart,
				Reason: fmt.Sprintf("lost_to=%d-%d winner_score=%.1f score=%.1f",
					winner.PageStart, winner.PageEnd, winner.Score, seg.Score),
			})
		}
	}
}

// scoreSegment implements the fixed winner-selection formula: page count
// dominates, text density rewards, irregular letter spacing penalizes, and
// flat bonuses reward bookmark, title and signature evidence.
func scoreSegment(seg *DocSegment, pages []ResolvedPage) float64 {
	score := float64(seg.PageCount()) * scorePageWeight
	score += avgDensity(seg, pages) * scoreDensityWeight
	score -= avgWeirdSpacing(seg, pages) * scoreWeirdWeight

	bonus := 0.0
	seenMethod := map[string]bool{}
	for _, ev := range seg.Evidence {
		if seenMethod[ev.Method] {
			continue
		}
		seenMethod[ev.Method] = true
		switch ev.Method {
		case MethodBookmark, MethodBookmarkSegment:
			bonus += scoreBookmarkBonus
		case MethodContentsTitle:
			bonus += scoreTitleBonus
		case MethodSignatureFooter, MethodDespachoConfirm:
			// Failed probes leave untyped evidence; only confirmed ones count.
			if ev.DocType == DocDespacho {
				bonus += scoreSignatureBonus
			}
		}
	}
	return score + bonus
}

func avgDensity(seg *DocSegment, pages []ResolvedPage) float64 {
	sum, n := 0.0, 0
	for _, rp := range pagesInRange(pages, seg.PageStart, seg.PageEnd) {
		if rp.Info.BodyStreamLen > 0 {
			sum += float64(rp.Info.BodyTextOps) * densityPerBytesScale / float64(rp.Info.BodyStreamLen)
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func avgWeirdSpacing(seg *DocSegment, pages []ResolvedPage) float64 {
	sum, n := 0.0, 0
	for _, rp := range pagesInRange(pages, seg.PageStart, seg.PageEnd) {
		sum += textnorm.WeirdSpacingRatio(rp.Info.BodyPrefix + " " + rp.Info.BodySuffix)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
