package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
)

// Strong evidence priorities; lower wins. Only these two methods may settle a
// type conflict on their own.
var strongMethodPriority = map[string]int{
	MethodBookmark:      0,
	MethodContentsTitle: 1,
}

// resolvePageType turns a page's evidence set into one type. With more than
// one distinct type, the strongest evidence wins and the conflict is
// annotated; without strong evidence the page stays unknown and the caller
// records a conflict error.
func resolvePageType(items []EvidenceItem) (DocType, []EvidenceItem, bool) {
	var distinct []DocType
	seen := map[DocType]bool{}
	for _, it := range items {
		if it.DocType == "" || it.DocType == DocUnknown || seen[it.DocType] {
			continue
		}
		seen[it.DocType] = true
		distinct = append(distinct, it.DocType)
	}

	switch len(distinct) {
	case 0:
		return DocUnknown, nil, false
	case 1:
		return distinct[0], nil, false
	}

	if strong, ok := strongestItem(items); ok {
		annotation := EvidenceItem{
			Method:  MethodDocTypeConflict,
			DocType: strong.DocType,
			Page:    strong.Page,
			Matched: joinTypes(distinct),
			Reason:  "conflict_ignored_strong_title",
		}
		return strong.DocType, []EvidenceItem{annotation}, false
	}
	return DocUnknown, nil, true
}

func strongestItem(items []EvidenceItem) (EvidenceItem, bool) {
	best := EvidenceItem{}
	bestPrio := -1
	for _, it := range items {
		if it.DocType == "" || it.DocType == DocUnknown {
			continue
		}
		prio, ok := strongMethodPriority[it.Method]
		if !ok {
			continue
		}
		if bestPrio < 0 || prio < bestPrio {
			best = it
			bestPrio = prio
		}
	}
	return best, bestPrio >= 0
}

func hasStrongEvidence(items []EvidenceItem) bool {
	_, ok := strongestItem(items)
	return ok
}

func joinTypes(types []DocType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// ResolvePages builds evidence for every page, resolves a type per page and
// layers the despacho corrections (continuation, signature confirmation) and
// unknown-gap filling on top.
func ResolvePages(path string, pages []PageInfo, hits DocHits, finder *signature.Finder) ([]ResolvedPage, []PipelineError) {
	resolved := make([]ResolvedPage, len(pages))
	var errs []PipelineError

	for i, info := range pages {
		items := BuildPageEvidence(info, hits)
		dt, extra, conflict := resolvePageType(items)
		items = append(items, extra...)
		if conflict {
			errs = append(errs, PipelineError{
				Code:    ErrDocTypeConflict,
				Message: fmt.Sprintf("page %d has conflicting type evidence with no strong title", info.Page),
			})
		}
		resolved[i] = ResolvedPage{Info: info, DocType: dt, Evidence: items}
	}

	confirm := buildDespachoConfirmMap(path, resolved, finder)
	applyDespachoCorrections(resolved, confirm)
	fillUnknownGaps(resolved)

	return resolved, errs
}

// buildDespachoConfirmMap probes, for every despacho-resolved page except the
// last, the following page for a signed-and-dated trailing block. When the
// next page already classifies as a different known type the probe is skipped
// and the conflict recorded as the check status.
func buildDespachoConfirmMap(path string, pages []ResolvedPage, finder *signature.Finder) map[int]signature.Check {
	confirm := make(map[int]signature.Check)
	for i, rp := range pages {
		if rp.DocType != DocDespacho || i == len(pages)-1 {
			continue
		}
		next := pages[i+1]
		if next.DocType != DocUnknown && next.DocType != DocDespacho {
			confirm[rp.Info.Page] = signature.Check{
				Page:   next.Info.Page,
				Status: "next_page_doc_conflict:" + string(next.DocType),
			}
			continue
		}
		if finder != nil {
			confirm[rp.Info.Page] = finder.FindOnPage(path, next.Info.Page)
		}
	}
	return confirm
}

// applyDespachoCorrections walks the resolved pages in order, inheriting the
// despacho type onto evidence-free pages that directly follow a confirmed
// despacho start, and demoting despacho pages whose trailing signature was
// neither found nor backed by strong evidence.
func applyDespachoCorrections(pages []ResolvedPage, confirm map[int]signature.Check) {
	lastConfirmedStart := -1

	for i := range pages {
		rp := &pages[i]

		if rp.DocType == DocUnknown && !hasTypedEvidence(rp.Evidence) &&
			i > 0 && pages[i-1].Info.Page == lastConfirmedStart {
			rp.DocType = DocDespacho
			rp.Evidence = append(rp.Evidence, EvidenceItem{
				Method:  MethodDespachoFollowup,
				DocType: DocDespacho,
				Page:    rp.Info.Page,
				Reason:  "confirmed_next_page",
			})
			continue
		}

		if rp.DocType != DocDespacho {
			continue
		}

		check, probed := confirm[rp.Info.Page]
		if probed && check.Confirmed() {
			lastConfirmedStart = rp.Info.Page
			rp.Evidence = append(rp.Evidence, EvidenceItem{
				Method:   MethodDespachoConfirm,
				DocType:  DocDespacho,
				Page:     check.Page,
				Matched:  check.DateText,
				Reason:   check.Status,
				StreamID: check.StreamID,
			})
			continue
		}

		reason := "despacho_not_confirmed"
		if probed {
			reason = check.Status
		}
		if hasStrongEvidence(rp.Evidence) {
			rp.Evidence = append(rp.Evidence, EvidenceItem{
				Method:  MethodDespachoConfirm,
				DocType: DocDespacho,
				Page:    rp.Info.Page,
				Reason:  reason,
			})
			lastConfirmedStart = rp.Info.Page
			continue
		}
		rp.DocType = DocUnknown
		rp.Evidence = append(rp.Evidence, EvidenceItem{
			Method: MethodDespachoConfirm,
			Page:   rp.Info.Page,
			Reason: reason,
		})
	}
}

// fillUnknownGaps relabels maximal unknown runs strictly bounded on both
// sides by the same known type, provided the bound-to-bound span stays within
// that type's page limit.
func fillUnknownGaps(pages []ResolvedPage) {
	i := 0
	for i < len(pages) {
		if pages[i].DocType != DocUnknown {
			i++
			continue
		}
		start := i
		for i < len(pages) && pages[i].DocType == DocUnknown {
			i++
		}
		end := i - 1

		if start == 0 || end == len(pages)-1 {
			continue
		}
		prev := pages[start-1].DocType
		next := pages[end+1].DocType
		if prev == DocUnknown || prev != next {
			continue
		}
		max := MaxPages(prev)
		span := (end + 1) - (start - 1) + 1
		if max > 0 && span > max {
			continue
		}
		for j := start; j <= end; j++ {
			pages[j].DocType = prev
			pages[j].Evidence = append(pages[j].Evidence, EvidenceItem{
				Method:  MethodDocGapFill,
				DocType: prev,
				Page:    pages[j].Info.Page,
				Reason:  "between_same_type",
			})
		}
	}
}
