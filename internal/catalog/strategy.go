package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

// StrategyRule is one generic extraction rule: a regex whose first capture
// group proposes a value for a field, with its own confidence.
type StrategyRule struct {
	Name       string
	Field      string
	DocTypes   []pipeline.DocType // empty means all types
	Pattern    *regexp.Regexp
	Confidence float64
}

// Strategies implements pipeline.StrategyEngine over an ordered rule list.
type Strategies struct {
	rules []StrategyRule
}

type strategiesDoc struct {
	Rules []struct {
		Name       string   `yaml:"name"`
		Field      string   `yaml:"field"`
		DocTypes   []string `yaml:"doc_types"`
		Pattern    string   `yaml:"pattern"`
		Confidence float64  `yaml:"confidence"`
	} `yaml:"rules"`
}

// LoadStrategies reads a YAML rule catalog, falling back to the built-in
// rules when the file is absent.
func LoadStrategies(path string) (*Strategies, error) {
	if path == "" {
		return DefaultStrategies(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultStrategies(), nil
		}
		return nil, fmt.Errorf("read strategy catalog: %w", err)
	}
	var doc strategiesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse strategy catalog %s: %w", path, err)
	}

	s := &Strategies{}
	for _, r := range doc.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("strategy rule %s: %w", r.Name, err)
		}
		rule := StrategyRule{
			Name:       r.Name,
			Field:      r.Field,
			Pattern:    re,
			Confidence: r.Confidence,
		}
		for _, dt := range r.DocTypes {
			rule.DocTypes = append(rule.DocTypes, pipeline.DocType(dt))
		}
		if rule.Confidence <= 0 || rule.Confidence > 1 {
			rule.Confidence = 0.6
		}
		s.rules = append(s.rules, rule)
	}
	return s, nil
}

// Run evaluates every applicable rule against the text, one candidate per
// first match.
func (s *Strategies) Run(docType pipeline.DocType, text string) ([]pipeline.FieldCandidate, error) {
	if text == "" {
		return nil, nil
	}
	var out []pipeline.FieldCandidate
	for _, rule := range s.rules {
		if !rule.applies(docType) {
			continue
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := m[0]
		if len(m) > 1 && m[1] != "" {
			value = m[1]
		}
		out = append(out, pipeline.FieldCandidate{
			Field:      rule.Field,
			Value:      cleanCapture(rule.Field, value),
			ValueRaw:   m[0],
			ValueFull:  contextAround(text, m[0]),
			Method:     rule.Name,
			Confidence: rule.Confidence,
		})
	}
	return out, nil
}

func (r StrategyRule) applies(dt pipeline.DocType) bool {
	if len(r.DocTypes) == 0 {
		return true
	}
	for _, d := range r.DocTypes {
		if d == dt {
			return true
		}
	}
	return false
}

const strategyContextWindow = 160

func contextAround(text, match string) string {
	idx := strings.Index(text, match)
	if idx < 0 {
		return ""
	}
	start := idx - strategyContextWindow
	if start < 0 {
		start = 0
	}
	end := idx + len(match) + strategyContextWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// DefaultStrategies returns the built-in rule set: process numbers in CNJ
// format, CPF, labeled money values, long-form dates and party labels.
func DefaultStrategies() *Strategies {
	mk := func(name, field, pattern string, conf float64, docTypes ...pipeline.DocType) StrategyRule {
		return StrategyRule{
			Name:       name,
			Field:      field,
			DocTypes:   docTypes,
			Pattern:    regexp.MustCompile(pattern),
			Confidence: conf,
		}
	}
	return &Strategies{rules: []StrategyRule{
		mk("cnj_number", pipeline.FieldProcessoJudicial,
			`\b(\d{7}-?\d{2}\.?\d{4}\.?\d\.?\d{2}\.?\d{4})\b`, 0.7),
		mk("proc_adm_label", pipeline.FieldProcessoAdministrativo,
			`(?i)(?:processo\s+administrativo|protocolo)\s*(?:n[ºo°.]*)?\s*[:\-]?\s*([\d][\d./\-]{5,}\d)`, 0.65),
		mk("cpf_label", pipeline.FieldCPFPerito,
			`(?i)cpf\s*(?:n[ºo°.]*)?\s*[:\-]?\s*(\d{3}\.?\d{3}\.?\d{3}-?\d{2})`, 0.6),
		mk("valor_jz_label", pipeline.FieldValorArbitradoJZ,
			`(?i)(?:fixo|arbitro|fixado|arbitrado)[\wÀ-ÿ\s,]{0,40}?(R\$\s*[\d.,]*\d)`, 0.55,
			pipeline.DocDespacho, pipeline.DocRequerimento),
		mk("valor_cm_label", pipeline.FieldValorArbitradoCM,
			`(?i)conselho\s+da\s+magistratura[\wÀ-ÿ\s,]{0,60}?(R\$\s*[\d.,]*\d)`, 0.55,
			pipeline.DocCertidao),
		mk("data_requisicao", pipeline.FieldDataRequisicao,
			`(?i)\b(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})\b`, 0.5,
			pipeline.DocRequerimento),
		mk("comarca_label", pipeline.FieldComarca,
			`(?i)comarca\s+d[aeo]\s+([A-ZÀ-Ÿ][\wÀ-ÿ ]{2,60})`, 0.5),
		mk("vara_label", pipeline.FieldVara,
			`(?i)\b(\d{1,2}[ªa]?\s*vara\s+[\wÀ-ÿ ]{2,60})`, 0.5),
		mk("promovente_label", pipeline.FieldPromovente,
			`(?i)promovente\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,6})`, 0.55),
		mk("promovido_label", pipeline.FieldPromovido,
			`(?i)promovid[oa]\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,6})`, 0.55),
		mk("percentual_label", pipeline.FieldPercentual,
			`(?i)percentual\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d\s*%)`, 0.5,
			pipeline.DocCertidao),
		mk("fator_label", pipeline.FieldFator,
			`(?i)fator\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d)`, 0.5,
			pipeline.DocCertidao, pipeline.DocDespacho),
	}}
}
