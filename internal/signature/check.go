package signature

import (
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Check statuses, in the order detection degrades.
const (
	StatusOK          = "ok"
	StatusTextEmpty   = "signature_text_empty"
	StatusNameMissing = "signature_name_missing"
	StatusDateMissing = "signature_date_missing"
)

// Probe sources, in preference order.
const (
	SourceStreamSecondLargest = "stream_second_largest"
	SourceStreamLargestTail   = "stream_largest_tail"
	SourceFooterProbeText     = "footer_probe_text"
	SourceFooterProbeObj      = "footer_probe_obj"
)

// Maximum characters retained in Check.TextSample.
const textSampleLen = 160

// Check is the outcome of evaluating one candidate text source on one page.
type Check struct {
	Page         int    `json:"page"`
	StreamID     int    `json:"stream_id"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	HasSignature bool   `json:"has_signature"`
	HasDate      bool   `json:"has_date"`
	DateText     string `json:"date_text,omitempty"`
	DateISO      string `json:"date_iso,omitempty"`
	TextSample   string `json:"text_sample,omitempty"`
}

// Confirmed reports whether the check found both the signer and the role line.
func (c Check) Confirmed() bool {
	return c.Status == StatusOK
}

// Score ranks competing checks: a signature match outweighs a date match.
func (c Check) Score() int {
	score := 0
	if c.HasSignature {
		score += 2
	}
	if c.HasDate {
		score++
	}
	return score
}

// Candidate is a text source located on a page by a prober.
type Candidate struct {
	StreamID int
	Text     string
	Source   string
}

// Prober locates candidate signature text sources on a page. Implementations
// return candidates in preference order (second-largest stream, largest-stream
// tail, footer probes).
type Prober interface {
	SignatureCandidates(path string, page int) ([]Candidate, error)
}

// Evaluate classifies a raw candidate text against the pattern set.
func Evaluate(p *Patterns, page int, cand Candidate) Check {
	check := Check{
		Page:     page,
		StreamID: cand.StreamID,
		Source:   cand.Source,
	}

	// Punctuation is stripped before collapsing so a letter-spaced role line
	// with a trailing comma still rejoins into one word.
	normalized := textnorm.CollapseSpacedLetters(textnorm.NormalizeForMatch(cand.Text))
	if normalized == "" {
		check.Status = StatusTextEmpty
		return check
	}
	check.TextSample = sample(normalized)

	check.HasSignature = p.Signer.MatchString(normalized) && p.Diretor.MatchString(normalized)
	if m := p.DatePt.FindString(normalized); m != "" {
		check.HasDate = true
		check.DateText = m
	} else if m := p.DateSlash.FindString(normalized); m != "" {
		check.HasDate = true
		check.DateText = m
	}
	if check.DateText != "" {
		if iso, ok := textnorm.ParseDateISO(check.DateText); ok {
			check.DateISO = iso
		}
	}

	switch {
	case !check.HasSignature:
		check.Status = StatusNameMissing
	case !check.HasDate:
		check.Status = StatusDateMissing
	default:
		check.Status = StatusOK
	}
	return check
}

// sample clips the retained text sample on rune boundaries.
func sample(s string) string {
	r := []rune(s)
	if len(r) <= textSampleLen {
		return s
	}
	return string(r[:textSampleLen])
}

// PickBest returns the highest-scoring check, keeping candidate order on ties.
func PickBest(checks []Check) (Check, bool) {
	if len(checks) == 0 {
		return Check{}, false
	}
	best := checks[0]
	for _, c := range checks[1:] {
		if c.Score() > best.Score() {
			best = c
		}
	}
	return best, true
}

// Finder runs the probe-and-evaluate loop for one document path.
type Finder struct {
	patterns *Patterns
	probe    Prober
}

// NewFinder builds a Finder; nil patterns fall back to the defaults.
func NewFinder(patterns *Patterns, probe Prober) *Finder {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Finder{patterns: patterns, probe: probe}
}

// FindOnPage probes a page and returns the best check found. A probe failure
// or an empty candidate list yields an empty-text check, never an error: the
// caller records the status and moves on.
func (f *Finder) FindOnPage(path string, page int) Check {
	if f.probe == nil {
		return Check{Page: page, Status: StatusTextEmpty}
	}
	cands, err := f.probe.SignatureCandidates(path, page)
	if err != nil || len(cands) == 0 {
		return Check{Page: page, Status: StatusTextEmpty}
	}

	checks := make([]Check, 0, len(cands))
	for _, cand := range cands {
		checks = append(checks, Evaluate(f.patterns, page, cand))
	}
	best, _ := PickBest(checks)
	return best
}
