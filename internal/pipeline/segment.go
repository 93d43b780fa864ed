package pipeline

import (
	"fmt"
	"sort"
)

// SegmentPages groups resolved pages into contiguous typed segments. Bookmark
// mode is used whenever any bookmark hit exists; pages before the first
// bookmark still go through the classification walk.
func SegmentPages(pages []ResolvedPage, hits DocHits) []*DocSegment {
	if len(pages) == 0 {
		return nil
	}
	if len(hits.Bookmarks) == 0 {
		return segmentByClassification(pages)
	}
	return segmentByBookmarks(pages, hits)
}

func segmentByBookmarks(pages []ResolvedPage, hits DocHits) []*DocSegment {
	bmPages := make([]int, 0, len(hits.Bookmarks))
	for page := range hits.Bookmarks {
		bmPages = append(bmPages, page)
	}
	sort.Ints(bmPages)

	firstBm := bmPages[0]
	lastPage := pages[len(pages)-1].Info.Page

	var segments []*DocSegment
	if leading := pagesBefore(pages, firstBm); len(leading) > 0 {
		segments = segmentByClassification(leading)
	}

	for i, bmPage := range bmPages {
		end := lastPage
		if i+1 < len(bmPages) {
			end = bmPages[i+1] - 1
		}
		if end < bmPage {
			continue
		}

		title := hits.Bookmarks[bmPage]
		docType := ClassifyHeading(title)
		rangePages := pagesInRange(pages, bmPage, end)
		if docType == DocUnknown && len(rangePages) > 0 {
			docType = rangePages[0].DocType
		}

		seg := newSegment(docType, rangePages)
		seg.PageStart = bmPage
		seg.PageEnd = end
		seg.Evidence = append(seg.Evidence, EvidenceItem{
			Method:  MethodBookmarkSegment,
			DocType: docType,
			Page:    bmPage,
			Matched: clip(title),
			Reason:  fmt.Sprintf("bookmark_range:%d-%d", bmPage, end),
		})
		segments = append(segments, seg)
	}
	return segments
}

// segmentByClassification walks pages in order and opens a new segment on any
// type change or when the running segment would exceed its type's page limit.
// An unknown page after a typed run always opens a new segment; unknown pages
// join typed runs only through gap filling, which happens earlier.
func segmentByClassification(pages []ResolvedPage) []*DocSegment {
	var segments []*DocSegment
	var run []ResolvedPage

	flush := func() {
		if len(run) == 0 {
			return
		}
		segments = append(segments, newSegment(run[0].DocType, run))
		run = nil
	}

	for _, rp := range pages {
		if len(run) > 0 {
			max := MaxPages(run[0].DocType)
			if rp.DocType != run[0].DocType || (max > 0 && len(run)+1 > max) {
				flush()
			}
		}
		run = append(run, rp)
	}
	flush()
	return segments
}

func newSegment(docType DocType, pages []ResolvedPage) *DocSegment {
	seg := &DocSegment{DocType: docType}
	if len(pages) > 0 {
		seg.PageStart = pages[0].Info.Page
		seg.PageEnd = pages[len(pages)-1].Info.Page
	}
	for _, rp := range pages {
		if seg.PrimaryStreamID == 0 && rp.Info.BodyStreamID > 0 {
			seg.PrimaryStreamID = rp.Info.BodyStreamID
		}
		seg.Evidence = append(seg.Evidence, rp.Evidence...)
	}
	return seg
}

func pagesBefore(pages []ResolvedPage, page int) []ResolvedPage {
	var out []ResolvedPage
	for _, rp := range pages {
		if rp.Info.Page < page {
			out = append(out, rp)
		}
	}
	return out
}

func pagesInRange(pages []ResolvedPage, start, end int) []ResolvedPage {
	var out []ResolvedPage
	for _, rp := range pages {
		if rp.Info.Page >= start && rp.Info.Page <= end {
			out = append(out, rp)
		}
	}
	return out
}
