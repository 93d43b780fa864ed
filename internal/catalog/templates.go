package catalog

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

// fieldPattern is one compiled template entry: the first capture group of a
// matching pattern becomes the field value.
type fieldPattern struct {
	field    string
	patterns []*regexp.Regexp
}

// Templates implements pipeline.TemplateMatcher from per-document-type,
// per-band pattern lists.
type Templates struct {
	// docType -> band -> ordered field patterns
	bands map[pipeline.DocType]map[string][]fieldPattern
}

type templatesDoc struct {
	Templates map[string]map[string][]struct {
		Field    string   `yaml:"field"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"templates"`
}

// LoadTemplates reads a YAML template catalog, falling back to the built-in
// defaults when the file is absent.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTemplates(), nil
		}
		return nil, fmt.Errorf("read template catalog: %w", err)
	}
	var doc templatesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template catalog %s: %w", path, err)
	}

	t := &Templates{bands: map[pipeline.DocType]map[string][]fieldPattern{}}
	for docType, bands := range doc.Templates {
		dt := pipeline.DocType(docType)
		t.bands[dt] = map[string][]fieldPattern{}
		for band, entries := range bands {
			for _, entry := range entries {
				fp := fieldPattern{field: entry.Field}
				for _, raw := range entry.Patterns {
					re, err := regexp.Compile(raw)
					if err != nil {
						return nil, fmt.Errorf("template pattern for %s/%s: %w", docType, entry.Field, err)
					}
					fp.patterns = append(fp.patterns, re)
				}
				t.bands[dt][band] = append(t.bands[dt][band], fp)
			}
		}
	}
	return t, nil
}

// MatchTemplate applies the band's pattern list to one text band. Only
// fields whose pattern matched are returned, with status ok.
func (t *Templates) MatchTemplate(docType pipeline.DocType, band, bandName string) (map[string]pipeline.ExtractedField, error) {
	bands, ok := t.bands[docType]
	if !ok {
		return nil, fmt.Errorf("no template for document type %s", docType)
	}
	out := map[string]pipeline.ExtractedField{}
	for _, fp := range bands[bandName] {
		for _, re := range fp.patterns {
			m := re.FindStringSubmatch(band)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 && m[1] != "" {
				value = m[1]
			}
			out[fp.field] = pipeline.ExtractedField{
				Status:    pipeline.StatusOK,
				Value:     cleanCapture(fp.field, value),
				ValueRaw:  m[0],
				ValueFull: band,
			}
			break
		}
	}
	return out, nil
}

// DefaultTemplates returns the built-in template set for the three document
// types, mirroring the headings and labels these documents actually carry.
func DefaultTemplates() *Templates {
	mk := func(field string, patterns ...string) fieldPattern {
		fp := fieldPattern{field: field}
		for _, raw := range patterns {
			fp.patterns = append(fp.patterns, regexp.MustCompile(raw))
		}
		return fp
	}

	common := []fieldPattern{
		mk(pipeline.FieldProcessoAdministrativo,
			`(?i)processo\s+administrativo\s*(?:n[ºo°.]*)?\s*[:\-]?\s*([\d][\d./\-]{5,}\d)`),
		mk(pipeline.FieldProcessoJudicial,
			`(?i)processo\s+(?:judicial|n[ºo°.]*)\s*[:\-]?\s*([\d][\d./\-]{5,}\d)`,
			`\b(\d{7}-?\d{2}\.?\d{4}\.?\d\.?\d{2}\.?\d{4})\b`),
		mk(pipeline.FieldComarca, `(?i)comarca\s+d[aeo]\s+([A-ZÀ-Ÿ][\wÀ-ÿ ]{2,60})`),
		mk(pipeline.FieldVara, `(?i)\b(\d{1,2}[ªa]?\s*vara[\wÀ-ÿ ]{0,60})`),
	}

	despachoFront := append([]fieldPattern{}, common...)
	despachoFront = append(despachoFront,
		mk(pipeline.FieldPerito, `(?i)perit[oa]\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,5})`),
		mk(pipeline.FieldCPFPerito, `(?i)cpf\s*(?:n[ºo°.]*)?\s*[:\-]?\s*(\d{3}\.?\d{3}\.?\d{3}-?\d{2})`),
	)
	despachoBack := []fieldPattern{
		mk(pipeline.FieldValorArbitradoDE, `(?i)arbitr\w+\s+(?:em|no valor de)\s+(R\$\s*[\d.,]*\d)`),
		mk(pipeline.FieldValorArbitradoJZ, `(?i)valor\s+(?:fixado|arbitrado)\s+pelo\s+ju[ií]zo\s*[:\-]?\s*(R\$\s*[\d.,]*\d)`),
		mk(pipeline.FieldDataArbitradoFinal, `(?i)\b(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})\b`),
	}

	reqFront := append([]fieldPattern{}, common...)
	reqFront = append(reqFront,
		mk(pipeline.FieldPromovente, `(?i)promovente\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,6})`),
		mk(pipeline.FieldPromovido, `(?i)promovid[oa]\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,6})`),
		mk(pipeline.FieldPerito, `(?i)perit[oa]\s*[:\-]?\s*([A-ZÀ-Ÿ][\wÀ-ÿ.]+(?:\s+[A-ZÀ-Ÿa-zà-ÿ][\wÀ-ÿ.]+){1,5})`),
	)
	reqBack := []fieldPattern{
		mk(pipeline.FieldValorArbitradoJZ, `(?i)honor[aá]rios\s+(?:periciais\s+)?(?:de|em|no valor de)\s+(R\$\s*[\d.,]*\d)`),
		mk(pipeline.FieldDataRequisicao, `(?i)\b(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})\b`),
	}

	certFront := append([]fieldPattern{}, common...)
	certBack := []fieldPattern{
		mk(pipeline.FieldValorArbitradoCM, `(?i)valor\s+(?:arbitrado|homologado)\s*[:\-]?\s*(R\$\s*[\d.,]*\d)`),
		mk(pipeline.FieldAdiantamento, `(?i)adiantamento\s*(?:de)?\s*[:\-]?\s*(R\$\s*[\d.,]*\d)`),
		mk(pipeline.FieldPercentual, `(?i)percentual\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d\s*%?)`),
		mk(pipeline.FieldParcela, `(?i)parcela\s*(?:[uú]nica|de)?\s*[:\-]?\s*(R\$\s*[\d.,]*\d|[uú]nica)`),
		mk(pipeline.FieldFator, `(?i)fator\s*(?:de)?\s*[:\-]?\s*([\d.,]*\d)`),
		mk(pipeline.FieldDataArbitradoFinal, `(?i)\b(\d{1,2}\s+de\s+[a-zçã]+\s+de\s+\d{4})\b`),
	}

	return &Templates{bands: map[pipeline.DocType]map[string][]fieldPattern{
		pipeline.DocDespacho: {
			pipeline.BandFrontHead: despachoFront,
			pipeline.BandBackTail:  despachoBack,
		},
		pipeline.DocRequerimento: {
			pipeline.BandFrontHead: reqFront,
			pipeline.BandBackTail:  reqBack,
		},
		pipeline.DocCertidao: {
			pipeline.BandFrontHead: certFront,
			pipeline.BandBackTail:  certBack,
		},
	}}
}
