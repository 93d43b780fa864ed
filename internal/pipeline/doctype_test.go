package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePageTypeStrongOverride(t *testing.T) {
	items := []EvidenceItem{
		{Method: MethodContentsPrefix, DocType: DocDespacho, Page: 1},
		{Method: MethodBookmark, DocType: DocCertidao, Page: 1},
	}

	dt, extra, conflict := resolvePageType(items)

	assert.Equal(t, DocCertidao, dt)
	assert.False(t, conflict)
	require.Len(t, extra, 1)
	assert.Equal(t, MethodDocTypeConflict, extra[0].Method)
	assert.Equal(t, "conflict_ignored_strong_title", extra[0].Reason)
}

func TestResolvePageTypeConflictWithoutStrong(t *testing.T) {
	items := []EvidenceItem{
		{Method: MethodContentsPrefix, DocType: DocDespacho, Page: 1},
		{Method: MethodLargestContents, DocType: DocCertidao, Page: 1},
	}

	dt, extra, conflict := resolvePageType(items)

	assert.Equal(t, DocUnknown, dt)
	assert.True(t, conflict)
	assert.Empty(t, extra)
}

func TestResolvePagesDespachoConfirmedContinuation(t *testing.T) {
	pages := []PageInfo{page(1, "DESPACHO"), emptyPage(2)}
	finder := stubFinder(map[int]string{2: signedFooterText})

	resolved, errs := ResolvePages("bundle.pdf", pages, emptyHits(), finder)

	require.Empty(t, errs)
	assert.Equal(t, DocDespacho, resolved[0].DocType)
	assert.True(t, hasEvidence(resolved[0].Evidence, MethodDespachoConfirm))

	// The evidence-free next page inherits the confirmed despacho.
	assert.Equal(t, DocDespacho, resolved[1].DocType)
	assert.True(t, hasEvidence(resolved[1].Evidence, MethodDespachoFollowup))
}

func TestResolvePagesDespachoDemotedWithoutConfirmation(t *testing.T) {
	hits := emptyHits()
	hits.ContentsPrefix[1] = true
	pages := []PageInfo{page(1, ""), emptyPage(2)}
	finder := stubFinder(nil) // no signature text anywhere

	resolved, _ := ResolvePages("bundle.pdf", pages, hits, finder)

	assert.Equal(t, DocUnknown, resolved[0].DocType)
	assert.True(t, hasEvidence(resolved[0].Evidence, MethodDespachoConfirm))
	assert.Equal(t, DocUnknown, resolved[1].DocType)
}

func TestResolvePagesDespachoKeptOnStrongEvidence(t *testing.T) {
	pages := []PageInfo{page(1, "DESPACHO"), emptyPage(2)}
	finder := stubFinder(nil)

	resolved, _ := ResolvePages("bundle.pdf", pages, emptyHits(), finder)

	// The strong contents title outweighs the failed confirmation probe.
	assert.Equal(t, DocDespacho, resolved[0].DocType)
}

func TestResolvePagesNextPageConflictSkipsProbe(t *testing.T) {
	pages := []PageInfo{
		page(1, "DESPACHO"),
		page(2, "CERTIDÃO DO CONSELHO DA MAGISTRATURA"),
	}
	finder := stubFinder(map[int]string{2: signedFooterText})

	resolved, _ := ResolvePages("bundle.pdf", pages, emptyHits(), finder)

	assert.Equal(t, DocDespacho, resolved[0].DocType)
	assert.Equal(t, DocCertidao, resolved[1].DocType)

	found := false
	for _, ev := range resolved[0].Evidence {
		if ev.Method == MethodDespachoConfirm {
			assert.Contains(t, ev.Reason, "next_page_doc_conflict")
			found = true
		}
	}
	assert.True(t, found, "expected a despacho_confirm evidence item")
}

func TestFillUnknownGapsWithinLimit(t *testing.T) {
	title := "REQUERIMENTO DE HONORÁRIOS PERICIAIS"
	pages := []PageInfo{page(1, title), emptyPage(2), page(3, title)}

	resolved, _ := ResolvePages("bundle.pdf", pages, emptyHits(), stubFinder(nil))

	assert.Equal(t, DocRequerimento, resolved[1].DocType)
	assert.True(t, hasEvidence(resolved[1].Evidence, MethodDocGapFill))
}

func TestFillUnknownGapsRespectsPageLimit(t *testing.T) {
	title := "CERTIDÃO DO CONSELHO DA MAGISTRATURA"
	pages := []PageInfo{page(1, title), emptyPage(2), page(3, title)}

	resolved, _ := ResolvePages("bundle.pdf", pages, emptyHits(), stubFinder(nil))

	// A filled gap would span three pages against the two-page ceiling.
	assert.Equal(t, DocUnknown, resolved[1].DocType)
	assert.False(t, hasEvidence(resolved[1].Evidence, MethodDocGapFill))
}

func TestFillUnknownGapsNeedsMatchingBounds(t *testing.T) {
	pages := []PageInfo{
		page(1, "DESPACHO"),
		emptyPage(2),
		page(3, "REQUERIMENTO DE HONORÁRIOS PERICIAIS"),
	}
	finder := stubFinder(map[int]string{2: signedFooterText})

	resolved, _ := ResolvePages("bundle.pdf", pages, emptyHits(), finder)

	// Gap bounded by different types stays despacho only through the
	// confirmed-continuation rule, never through gap filling.
	assert.False(t, hasEvidence(resolved[1].Evidence, MethodDocGapFill))
}
