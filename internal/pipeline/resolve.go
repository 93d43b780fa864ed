package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// Per-field maximum accepted value lengths.
var fieldMaxLen = map[string]int{
	FieldProcessoAdministrativo: 40,
	FieldProcessoJudicial:       40,
	FieldCPFPerito:              20,
	FieldPercentual:             30,
	FieldFator:                  30,
	FieldParcela:                30,
	FieldValorArbitradoJZ:       40,
	FieldValorArbitradoDE:       40,
	FieldValorArbitradoCM:       40,
	FieldValorArbitradoFinal:    40,
	FieldAdiantamento:           40,
	FieldPerito:                 80,
	FieldPromovente:             120,
	FieldPromovido:              120,
	FieldComarca:                120,
	FieldVara:                   120,
	FieldEspecialidade:          180,
	FieldEspecieDaPericia:       200,
}

var (
	peritoNoiseRe = regexp.MustCompile(
		`(?i)\b(para|caso|autos|processo|ep[ií]grafe|judicial|movid[oa]|promovente|promovido|requerente|interessad[oa]|vara|comarca)\b`)
	partyNoiseRe = regexp.MustCompile(
		`(?i)\b(caso|processo|autos|ju[ií]zo|vara|comarca|face|ep[ií]grafe)\b`)
	alphaTokenRe = regexp.MustCompile(`^[A-Za-zÀ-ÿ]{2,}$`)
	cpfPatternRe = regexp.MustCompile(`\b\d{3}\s*\.?\s*\d{3}\s*\.?\s*\d{3}\s*-?\s*\d{2}\b`)
	partyVocabRe = regexp.MustCompile(
		`(?i)(autor|r[eé]u\b|movid[oa]\s+por|em\s+face|promovent|promovid|cpf\s*/\s*cnpj)`)
	expertVocabRe = regexp.MustCompile(
		`(?i)(perit|interessad|parte\s*:|assistente\s+social)`)
)

const cpfContextWindow = 120

// resolveField filters, normalizes and ranks a field's candidates, producing
// one resolved value with provenance or a structured absence.
func (p *Pipeline) resolveField(field string, cands []FieldCandidate, dt DocType,
	tried []string, front, back string,
) (*FinalFieldValue, []PipelineError) {
	out := &FinalFieldValue{DocType: dt}

	if !FieldAllowedForDoc(field, dt) {
		return out, nil
	}

	var nonBlank []FieldCandidate
	for _, c := range cands {
		if strings.TrimSpace(c.Value) != "" {
			nonBlank = append(nonBlank, c)
		}
	}

	var accepted []FieldCandidate
	for _, c := range nonBlank {
		if isCandidateAccepted(field, c) {
			accepted = append(accepted, c)
		}
	}

	if len(accepted) == 0 {
		code := ErrNotFound
		if len(nonBlank) > 0 {
			code = ErrInvalidFormat
		}
		applyBandFallback(out, front, back)
		return out, []PipelineError{{
			Code:         code,
			Field:        field,
			Message:      fmt.Sprintf("no accepted candidate for %s on %s", field, dt),
			TriedMethods: tried,
			Candidates:   nonBlank,
		}}
	}

	ranked := make([]FieldCandidate, len(accepted))
	copy(ranked, accepted)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := candidatePriority(ranked[i]), candidatePriority(ranked[j])
		if pi != pj {
			return pi > pj
		}
		return ranked[i].Confidence > ranked[j].Confidence
	})
	best := ranked[0]

	distinct := map[string]bool{}
	for _, c := range accepted {
		distinct[NormalizeCandidateValue(field, c.Value)] = true
	}
	if p.strict && len(distinct) > 1 {
		// The value and its raw form are nulled; only the band fallback
		// provenance survives. The candidates ride along in the error.
		applyBandFallback(out, front, back)
		return out, []PipelineError{{
			Code:         ErrAmbiguousMatch,
			Field:        field,
			Message:      fmt.Sprintf("%d distinct normalized values for %s", len(distinct), field),
			TriedMethods: tried,
			Candidates:   accepted,
		}}
	}

	copyProvenance(out, best)
	out.Value = best.Value
	return out, nil
}

// candidatePriority ranks extraction families: the structured map-match is
// most trusted, raw textops extraction next, everything else equal.
func candidatePriority(c FieldCandidate) float64 {
	switch {
	case c.Method == MethodAlignRange:
		return 3.0
	case c.Source == SourceTextOps || c.Method == MethodTextOpsFront || c.Method == MethodTextOpsBack:
		return 2.0
	default:
		return 1.0
	}
}

func copyProvenance(out *FinalFieldValue, c FieldCandidate) {
	out.ValueRaw = c.ValueRaw
	out.ValueFull = c.ValueFull
	out.Source = c.Source
	out.OpRange = c.OpRange
	out.StreamID = c.StreamID
	out.BoundingBox = c.BoundingBox
	out.Page = c.Page
	out.Confidence = c.Confidence
	out.Method = c.Method
}

func applyBandFallback(out *FinalFieldValue, front, back string) {
	switch {
	case front != "":
		out.Source = BandFrontHead
		out.ValueFull = front
	case back != "":
		out.Source = BandBackTail
		out.ValueFull = back
	}
}

// NormalizeCandidateValue builds the field-specific comparison key used for
// deduplication and ambiguity detection.
func NormalizeCandidateValue(field, value string) string {
	switch field {
	case FieldProcessoAdministrativo, FieldProcessoJudicial, FieldCPFPerito:
		return textnorm.DigitsOnly(value)
	case FieldValorArbitradoJZ, FieldValorArbitradoDE, FieldValorArbitradoCM,
		FieldValorArbitradoFinal, FieldAdiantamento, FieldParcela:
		if money, ok := textnorm.NormalizeMoney(value); ok {
			return money
		}
		return strings.ToLower(value)
	case FieldPercentual, FieldFator:
		return textnorm.NormalizePercent(value)
	case FieldDataArbitradoFinal, FieldDataRequisicao:
		if iso, ok := textnorm.ParseDateISO(value); ok {
			return iso
		}
		return textnorm.NormalizeForMatch(value)
	default:
		return textnorm.NormalizeForMatch(value)
	}
}

// isCandidateAccepted applies the per-field acceptance gate: length ceiling,
// format validation and the name/identifier heuristics.
func isCandidateAccepted(field string, c FieldCandidate) bool {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return false
	}
	if max, ok := fieldMaxLen[field]; ok && len(value) > max {
		return false
	}

	switch field {
	case FieldProcessoAdministrativo, FieldProcessoJudicial:
		return len(textnorm.DigitsOnly(value)) >= 7
	case FieldCPFPerito:
		if len(textnorm.DigitsOnly(value)) != 11 {
			return false
		}
		return cpfContextAccepted(value, c.ValueFull)
	case FieldValorArbitradoJZ, FieldValorArbitradoDE, FieldValorArbitradoCM,
		FieldValorArbitradoFinal, FieldAdiantamento:
		_, ok := textnorm.ParseMoney(value)
		return ok
	case FieldPercentual, FieldFator, FieldParcela:
		return strings.ContainsAny(value, "0123456789")
	case FieldDataArbitradoFinal, FieldDataRequisicao:
		_, ok := textnorm.ParseDateISO(value)
		return ok
	case FieldPerito:
		return acceptPeritoName(value)
	case FieldPromovente, FieldPromovido:
		return acceptPartyName(value)
	default:
		return true
	}
}

// acceptPeritoName requires a proper-name shape: at least two tokens with
// upper initials and no processual noise vocabulary.
func acceptPeritoName(value string) bool {
	if peritoNoiseRe.MatchString(value) {
		return false
	}
	tokens := strings.Fields(value)
	if len(tokens) < 2 {
		return false
	}
	upperInitials := 0
	for _, tok := range tokens {
		r := []rune(tok)
		if unicode.IsUpper(r[0]) {
			upperInitials++
		}
	}
	return upperInitials >= 2
}

// acceptPartyName is looser than the perito check: two tokens, two of them
// alphabetic, and either an upper initial or an all-caps word present.
func acceptPartyName(value string) bool {
	if partyNoiseRe.MatchString(value) {
		return false
	}
	tokens := strings.Fields(value)
	if len(tokens) < 2 {
		return false
	}
	alphaTokens, upperInitials, allUpper := 0, 0, 0
	for _, tok := range tokens {
		if alphaTokenRe.MatchString(tok) {
			alphaTokens++
		}
		r := []rune(tok)
		if unicode.IsUpper(r[0]) {
			upperInitials++
		}
		if len(r) >= 2 && tok == strings.ToUpper(tok) && alphaTokenRe.MatchString(tok) {
			allUpper++
		}
	}
	if alphaTokens < 2 {
		return false
	}
	return upperInitials >= 1 || allUpper >= 2
}

// cpfContextAccepted locates the candidate CPF inside its surrounding text
// and rejects it when the window around the match carries party-role
// vocabulary without any expert vocabulary nearby.
func cpfContextAccepted(value, valueFull string) bool {
	if valueFull == "" {
		return true
	}
	digits := textnorm.DigitsOnly(value)

	for _, loc := range cpfPatternRe.FindAllStringIndex(valueFull, -1) {
		if textnorm.DigitsOnly(valueFull[loc[0]:loc[1]]) != digits {
			continue
		}
		start := loc[0] - cpfContextWindow
		if start < 0 {
			start = 0
		}
		end := loc[1] + cpfContextWindow
		if end > len(valueFull) {
			end = len(valueFull)
		}
		window := valueFull[start:end]
		if partyVocabRe.MatchString(window) && !expertVocabRe.MatchString(window) {
			return false
		}
	}
	return true
}
