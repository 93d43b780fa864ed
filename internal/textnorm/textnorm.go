// Package textnorm provides text normalization helpers for Brazilian court
// documents: whitespace and diacritic handling, CPF/process-number digit
// extraction, money and percent canonicalization, and Portuguese date parsing.
package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonDigitRe    = regexp.MustCompile(`\D+`)
	moneyKeepRe   = regexp.MustCompile(`[^0-9.,]+`)
	longDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+([a-zA-Zçãáàéêíóôõú]+)\s+de\s+(\d{4})\b`)
	slashDateRe   = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{4})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	matchKeepRe   = regexp.MustCompile(`[^a-z0-9 /\-.]+`)
	nameSplitRe   = regexp.MustCompile(`[^A-Z0-9]+`)
	diacriticStrip = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Portuguese month names, diacritics already stripped (marco, not março).
var monthsPt = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// NormalizeWhitespace collapses all whitespace runs into single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// RemoveDiacritics strips combining marks (ç→c, ã→a) keeping base letters.
func RemoveDiacritics(s string) string {
	out, _, err := transform.String(diacriticStrip, s)
	if err != nil {
		return s
	}
	return out
}

// DigitsOnly strips everything but decimal digits.
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// NormalizeCPF reduces a CPF to its digit form (11 digits when well-formed).
func NormalizeCPF(s string) string {
	return DigitsOnly(s)
}

// NormalizeForMatch lowers, strips diacritics and keeps only characters useful
// for fuzzy keyword comparison.
func NormalizeForMatch(s string) string {
	out := strings.ToLower(RemoveDiacritics(s))
	out = matchKeepRe.ReplaceAllString(out, " ")
	return NormalizeWhitespace(out)
}

// NormalizeNameKey builds the canonical comparison key for person names:
// diacritics stripped, uppercased, punctuation collapsed to single spaces.
func NormalizeNameKey(s string) string {
	out := strings.ToUpper(RemoveDiacritics(s))
	out = nameSplitRe.ReplaceAllString(out, " ")
	return NormalizeWhitespace(out)
}

// CollapseSpacedLetters rejoins letter-spaced words ("D E S P A C H O") that
// appear in scanned headings. Runs of three or more single letters separated by
// spaces are merged; everything else passes through unchanged. A trailing dot
// on a letter does not break the run, so "D E S P A C H O." still collapses.
func CollapseSpacedLetters(s string) string {
	fields := strings.Fields(s)
	var out []string
	i := 0
	for i < len(fields) {
		j := i
		for j < len(fields) && isSingleLetter(strings.TrimRight(fields[j], ".")) {
			j++
		}
		if j-i >= 3 {
			var merged strings.Builder
			for _, tok := range fields[i:j] {
				merged.WriteString(strings.TrimRight(tok, "."))
			}
			out = append(out, merged.String())
			i = j
			continue
		}
		out = append(out, fields[i])
		i++
	}
	return strings.Join(out, " ")
}

func isSingleLetter(tok string) bool {
	r := []rune(tok)
	return len(r) == 1 && unicode.IsLetter(r[0])
}

// WeirdSpacingRatio measures how letter-spaced a sample looks: the share of
// whitespace-separated tokens that are a single alphanumeric character.
func WeirdSpacingRatio(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	weird := 0
	for _, tok := range fields {
		r := []rune(tok)
		if len(r) == 1 && (unicode.IsLetter(r[0]) || unicode.IsDigit(r[0])) {
			weird++
		}
	}
	return float64(weird) / float64(len(fields))
}

// ParseMoney parses a Brazilian or mixed-format money string ("R$ 1.234,56",
// "1234.56", "1.234") into a float value.
func ParseMoney(raw string) (float64, bool) {
	s := moneyKeepRe.ReplaceAllString(raw, "")
	s = strings.Trim(s, ".,")
	if s == "" {
		return 0, false
	}

	sepIdx := strings.LastIndexAny(s, ".,")
	intPart := s
	fracPart := ""
	if sepIdx >= 0 {
		tail := s[sepIdx+1:]
		if len(tail) >= 1 && len(tail) <= 2 && !strings.ContainsAny(tail, ".,") {
			intPart = s[:sepIdx]
			fracPart = tail
		}
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" && fracPart == "" {
		return 0, false
	}
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	v, err := strconv.ParseFloat(intPart+"."+fracPart, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatMoney renders a value in canonical Brazilian currency form: "R$ 1.234,56".
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	cents := int64(v*100 + 0.5)
	intPart := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(intPart, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("R$ %s%s,%02d", sign, grouped.String(), frac)
}

// NormalizeMoney parses and re-renders a money string in canonical form.
func NormalizeMoney(raw string) (string, bool) {
	v, ok := ParseMoney(raw)
	if !ok {
		return "", false
	}
	return FormatMoney(v), true
}

// NormalizePercent canonicalizes percent/factor strings: spaces stripped,
// decimal dots turned into commas, a trailing "%" guaranteed.
func NormalizePercent(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, ".", ",")
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, "%") {
		s += "%"
	}
	return s
}

// ParseDateISO extracts the first recognizable date from a text fragment and
// returns it in ISO form (yyyy-mm-dd). Understands slashed and dashed numeric
// dates plus the Portuguese long form "10 de março de 2023".
func ParseDateISO(raw string) (string, bool) {
	s := NormalizeWhitespace(raw)
	if s == "" {
		return "", false
	}

	if m := longDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		monthName := strings.ToLower(RemoveDiacritics(m[2]))
		if month, ok := monthsPt[monthName]; ok {
			if iso, ok := buildISO(year, int(month), day); ok {
				return iso, true
			}
		}
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if iso, ok := buildISO(year, month, day); ok {
			return iso, true
		}
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if iso, ok := buildISO(year, month, day); ok {
			return iso, true
		}
	}
	return "", false
}

func buildISO(year, month, day int) (string, bool) {
	if year < 1900 || year > 2200 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
