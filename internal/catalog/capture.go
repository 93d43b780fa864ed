package catalog

import (
	"regexp"
	"strings"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

// Labels that commonly follow a person name in these documents. The greedy
// name captures can swallow the label token, so it is trimmed off the value.
var nameLabelTailRe = regexp.MustCompile(
	`(?i)(?:[\s,;:]+(?:cpf|cnpj|rg|oab|crm|crea|matr[ií]cula))+[\s.,;:]*$`)

func cleanCapture(field, value string) string {
	switch field {
	case pipeline.FieldPerito, pipeline.FieldPromovente, pipeline.FieldPromovido:
		return strings.TrimSpace(nameLabelTailRe.ReplaceAllString(value, ""))
	}
	return strings.TrimSpace(value)
}
