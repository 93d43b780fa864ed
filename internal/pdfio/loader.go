// Package pdfio provides the default PDF collaborators: page classification
// records and whole-document detector signals built from extracted page text,
// bookmark/outline extraction, signature-text probing and file validation.
// The pipeline itself only sees the collaborator interfaces, so these
// implementations are replaceable wholesale in tests.
package pdfio

import (
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

const (
	titleSliceLen  = 120
	bandSliceLen   = 400
	bodySliceLen   = 800
	footerProbeLen = 300
	largestTailLen = 800
)

// Loader reads PDFs from disk and produces the pipeline's input records.
// Stream identifiers handed out by the loader are page-scoped handles, not
// raw PDF object numbers.
type Loader struct {
	maxFileSize int64
}

// NewLoader builds a loader enforcing the given file size ceiling (zero
// disables the check).
func NewLoader(maxFileSize int64) *Loader {
	return &Loader{maxFileSize: maxFileSize}
}

// Validate checks that the file exists, respects the size ceiling and parses
// as a PDF under relaxed validation.
func (l *Loader) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return fmt.Errorf("%s exceeds maximum file size (%d > %d bytes)", path, info.Size(), l.maxFileSize)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}

// LoadDocument builds the per-page classification records and the
// whole-document detector signals for one PDF.
func (l *Loader) LoadDocument(path string) ([]pipeline.PageInfo, pipeline.DocHits, error) {
	hits := pipeline.DocHits{
		Bookmarks:       map[int]string{},
		ContentsPrefix:  map[int]bool{},
		HeaderLabels:    map[int]bool{},
		LargestContents: map[int]pipeline.DocType{},
	}

	if l.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, hits, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() > l.maxFileSize {
			return nil, hits, fmt.Errorf("%s exceeds maximum file size", path)
		}
	}

	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return nil, hits, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]pipeline.PageInfo, 0, numPages)
	largestPage, largestLen := 0, 0
	var largestText string

	for i := 1; i <= numPages; i++ {
		info := pipeline.PageInfo{Page: i}
		text := pageText(reader, i)
		if text != "" {
			info.BodyStreamID = i
			info.BodyTextOps = len(strings.Fields(text))
			info.BodyStreamLen = len(text)
			info.TitleText = head(text, titleSliceLen)
			info.HeadText = head(text, bandSliceLen)
			info.TailText = tail(text, bandSliceLen)
			info.BodyPrefix = head(text, bodySliceLen)
			info.BodySuffix = tail(text, bodySliceLen)

			if pipeline.ClassifyHeading(info.BodyPrefix) == pipeline.DocDespacho {
				hits.ContentsPrefix[i] = true
			}
			if strings.Contains(textnorm.NormalizeForMatch(info.HeadText), "despacho") {
				hits.HeaderLabels[i] = true
			}
			if info.BodyStreamLen > largestLen {
				largestPage, largestLen, largestText = i, info.BodyStreamLen, text
			}
		}
		pages = append(pages, info)
	}

	if largestPage > 0 {
		if dt := pipeline.ClassifyHeading(head(largestText, bodySliceLen)); dt != pipeline.DocUnknown {
			hits.LargestContents[largestPage] = dt
		}
	}

	for page, title := range readBookmarks(path) {
		hits.Bookmarks[page] = title
	}
	return pages, hits, nil
}

// ExtractText returns the text behind a loader-issued stream handle.
func (l *Loader) ExtractText(path string, streamID int) (string, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if streamID < 1 || streamID > reader.NumPage() {
		return "", fmt.Errorf("stream %d out of range for %s", streamID, path)
	}
	return pageText(reader, streamID), nil
}

// SignatureCandidates probes one page for signature-bearing text sources, in
// preference order: the tail of the page's largest text run, then a short
// footer probe.
func (l *Loader) SignatureCandidates(path string, page int) ([]signature.Candidate, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if page < 1 || page > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range for %s", page, path)
	}
	text := pageText(reader, page)
	if text == "" {
		return nil, nil
	}
	return []signature.Candidate{
		{StreamID: page, Text: tail(text, largestTailLen), Source: signature.SourceStreamLargestTail},
		{StreamID: page, Text: tail(text, footerProbeLen), Source: signature.SourceFooterProbeText},
	}, nil
}

func pageText(reader *ledongthuc.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// readBookmarks flattens the document outline into a page -> title map.
// Best-effort: documents without an outline (or with a broken one) yield an
// empty map.
func readBookmarks(path string) map[int]string {
	out := map[int]string{}
	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		return out
	}
	var walk func(bms []pdfcpu.Bookmark)
	walk = func(bms []pdfcpu.Bookmark) {
		for _, bm := range bms {
			if bm.PageFrom > 0 && bm.Title != "" {
				if _, exists := out[bm.PageFrom]; !exists {
					out[bm.PageFrom] = bm.Title
				}
			}
			walk(bm.Kids)
		}
	}
	walk(bms)
	return out
}

// head and tail clip on rune boundaries so accented text never yields an
// invalid UTF-8 band.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
