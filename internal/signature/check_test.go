package signature

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signedFooter = `Documento assinado eletronicamente por
ROBSON DE SOUZA, Diretor da Gerência Administrativa,
em João Pessoa, 10 de março de 2023.`

func TestEvaluateStatuses(t *testing.T) {
	p := DefaultPatterns()

	tests := []struct {
		name   string
		text   string
		status string
		sig    bool
		date   bool
	}{
		{"empty", "   ", StatusTextEmpty, false, false},
		{"no signer", "despacho ordinário de 10 de março de 2023", StatusNameMissing, false, true},
		{"no date", "Robson de Souza, Diretor", StatusDateMissing, true, false},
		{"full block", signedFooter, StatusOK, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := Evaluate(p, 2, Candidate{Text: tt.text, Source: SourceFooterProbeText})
			assert.Equal(t, tt.status, check.Status)
			assert.Equal(t, tt.sig, check.HasSignature)
			assert.Equal(t, tt.date, check.HasDate)
		})
	}
}

func TestEvaluateDateISO(t *testing.T) {
	check := Evaluate(DefaultPatterns(), 2, Candidate{Text: signedFooter})
	require.True(t, check.Confirmed())
	assert.Equal(t, "10 de marco de 2023", check.DateText)
	assert.Equal(t, "2023-03-10", check.DateISO)
	assert.LessOrEqual(t, len(check.TextSample), 160)
}

func TestEvaluateCollapsedLetters(t *testing.T) {
	text := "R O B S O N de Souza, D I R E T O R, 01/02/2023"
	check := Evaluate(DefaultPatterns(), 1, Candidate{Text: text})
	assert.True(t, check.HasSignature)
	assert.True(t, check.HasDate)
	assert.Equal(t, "2023-02-01", check.DateISO)
}

func TestEvaluateCollapsedRoleLineWithPunctuation(t *testing.T) {
	// Scanned footers letter-space the role line and close it with a comma.
	text := "Robson de Souza, D I R E T O R , em 01/02/2023."
	check := Evaluate(DefaultPatterns(), 1, Candidate{Text: text})
	assert.True(t, check.HasSignature)
	assert.True(t, check.HasDate)
	assert.Equal(t, StatusOK, check.Status)
}

func TestSampleClipsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("ç", 200)
	out := sample(s)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 160, len([]rune(out)))
}

func TestPickBest(t *testing.T) {
	_, ok := PickBest(nil)
	assert.False(t, ok)

	checks := []Check{
		{Source: "a", HasDate: true},
		{Source: "b", HasSignature: true, HasDate: true},
		{Source: "c", HasSignature: true},
	}
	best, ok := PickBest(checks)
	require.True(t, ok)
	assert.Equal(t, "b", best.Source)

	// Ties keep candidate order.
	tied := []Check{{Source: "first", HasDate: true}, {Source: "second", HasDate: true}}
	best, _ = PickBest(tied)
	assert.Equal(t, "first", best.Source)
}

type fakeProbe struct {
	cands []Candidate
	err   error
}

func (f *fakeProbe) SignatureCandidates(_ string, _ int) ([]Candidate, error) {
	return f.cands, f.err
}

func TestFinderFindOnPage(t *testing.T) {
	probe := &fakeProbe{cands: []Candidate{
		{StreamID: 7, Text: "só texto de corpo", Source: SourceStreamSecondLargest},
		{StreamID: 8, Text: signedFooter, Source: SourceStreamLargestTail},
	}}
	finder := NewFinder(nil, probe)

	check := finder.FindOnPage("/tmp/doc.pdf", 6)
	assert.True(t, check.Confirmed())
	assert.Equal(t, SourceStreamLargestTail, check.Source)
	assert.Equal(t, 8, check.StreamID)
	assert.Equal(t, 6, check.Page)
}

func TestFinderProbeFailure(t *testing.T) {
	finder := NewFinder(nil, &fakeProbe{err: errors.New("boom")})
	check := finder.FindOnPage("x.pdf", 1)
	assert.Equal(t, StatusTextEmpty, check.Status)
	assert.False(t, check.Confirmed())
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signature.yml")
	content := "patterns:\n  signer_name: fulano\n  diretor: 'diretor[a]?'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadPatterns(path)
	require.NoError(t, err)
	assert.True(t, p.Signer.MatchString("fulano de tal"))
	assert.True(t, p.Diretor.MatchString("diretora"))
	// Unset entries keep defaults.
	assert.True(t, p.DatePt.MatchString("10 de marco de 2023"))
}

func TestLoadPatternsMissingFile(t *testing.T) {
	p, err := LoadPatterns(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.True(t, p.Signer.MatchString("robson"))
}
