// Package signature detects the signed-and-dated trailing block that closes a
// despacho: a named signer line, a director role line and a Portuguese
// long-form date, matched inside candidate text sources probed from a page.
package signature

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Default patterns used when no catalog file is configured. They match against
// text already lowercased and diacritic-stripped.
const (
	defaultSignerPattern    = `robson`
	defaultDiretorPattern   = `diretor`
	defaultDatePtPattern    = `\b(\d{1,2}\s+de\s+[a-z]+\s+de\s+\d{4})\b`
	defaultDateSlashPattern = `\b(\d{1,2}[/.]\d{1,2}[/.]\d{4})\b`
)

// Patterns holds the compiled regex set for signature-block detection.
type Patterns struct {
	Signer    *regexp.Regexp
	Diretor   *regexp.Regexp
	DatePt    *regexp.Regexp
	DateSlash *regexp.Regexp
}

type patternsDoc struct {
	Patterns struct {
		SignerName string `yaml:"signer_name"`
		Diretor    string `yaml:"diretor"`
		DatePt     string `yaml:"date_pt"`
		DateSlash  string `yaml:"date_slash"`
	} `yaml:"patterns"`
}

// DefaultPatterns returns the built-in pattern set.
func DefaultPatterns() *Patterns {
	return &Patterns{
		Signer:    regexp.MustCompile(defaultSignerPattern),
		Diretor:   regexp.MustCompile(defaultDiretorPattern),
		DatePt:    regexp.MustCompile(defaultDatePtPattern),
		DateSlash: regexp.MustCompile(defaultDateSlashPattern),
	}
}

// LoadPatterns reads a YAML pattern catalog. Missing file or unparseable
// entries fall back to the built-in defaults so detection always has a
// working pattern set.
func LoadPatterns(path string) (*Patterns, error) {
	p := DefaultPatterns()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read signature catalog: %w", err)
	}

	var doc patternsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return p, fmt.Errorf("parse signature catalog %s: %w", path, err)
	}

	p.Signer = compileOr(doc.Patterns.SignerName, p.Signer)
	p.Diretor = compileOr(doc.Patterns.Diretor, p.Diretor)
	p.DatePt = compileOr(doc.Patterns.DatePt, p.DatePt)
	p.DateSlash = compileOr(doc.Patterns.DateSlash, p.DateSlash)
	return p, nil
}

func compileOr(pattern string, fallback *regexp.Regexp) *regexp.Regexp {
	if pattern == "" {
		return fallback
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fallback
	}
	return re
}
