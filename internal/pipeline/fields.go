package pipeline

// DocType identifies one of the document kinds that appear in a court bundle.
type DocType string

const (
	DocDespacho     DocType = "DESPACHO"
	DocRequerimento DocType = "REQUERIMENTO_HONORARIOS"
	DocCertidao     DocType = "CERTIDAO_CM"
	DocUnknown      DocType = "UNKNOWN"
)

// Final field names. The output record always carries exactly this set.
const (
	FieldProcessoAdministrativo = "PROCESSO_ADMINISTRATIVO"
	FieldProcessoJudicial       = "PROCESSO_JUDICIAL"
	FieldComarca                = "COMARCA"
	FieldVara                   = "VARA"
	FieldPromovente             = "PROMOVENTE"
	FieldPromovido              = "PROMOVIDO"
	FieldPerito                 = "PERITO"
	FieldCPFPerito              = "CPF_PERITO"
	FieldEspecialidade          = "ESPECIALIDADE"
	FieldEspecieDaPericia       = "ESPECIE_DA_PERICIA"
	FieldValorArbitradoJZ       = "VALOR_ARBITRADO_JZ"
	FieldValorArbitradoDE       = "VALOR_ARBITRADO_DE"
	FieldValorArbitradoCM       = "VALOR_ARBITRADO_CM"
	FieldValorArbitradoFinal    = "VALOR_ARBITRADO_FINAL"
	FieldDataArbitradoFinal     = "DATA_ARBITRADO_FINAL"
	FieldDataRequisicao         = "DATA_REQUISICAO"
	FieldAdiantamento           = "ADIANTAMENTO"
	FieldPercentual             = "PERCENTUAL"
	FieldParcela                = "PARCELA"
	FieldFator                  = "FATOR"
)

// DeclaredFields lists every output field in canonical order.
func DeclaredFields() []string {
	return []string{
		FieldProcessoAdministrativo,
		FieldProcessoJudicial,
		FieldComarca,
		FieldVara,
		FieldPromovente,
		FieldPromovido,
		FieldPerito,
		FieldCPFPerito,
		FieldEspecialidade,
		FieldEspecieDaPericia,
		FieldValorArbitradoJZ,
		FieldValorArbitradoDE,
		FieldValorArbitradoCM,
		FieldValorArbitradoFinal,
		FieldDataArbitradoFinal,
		FieldDataRequisicao,
		FieldAdiantamento,
		FieldPercentual,
		FieldParcela,
		FieldFator,
	}
}

// MaxPages returns the maximum contiguous page span a document of the given
// type may occupy. Zero means no limit (unknown runs are unbounded).
func MaxPages(dt DocType) int {
	switch dt {
	case DocDespacho, DocRequerimento:
		return 3
	case DocCertidao:
		return 2
	default:
		return 0
	}
}

// fieldAllowedDocs restricts which document types may source each field.
// Fields absent from the map are allowed everywhere; an empty list means the
// field is derived only and never extracted directly.
var fieldAllowedDocs = map[string][]DocType{
	FieldPerito:              {DocDespacho, DocRequerimento, DocCertidao},
	FieldCPFPerito:           {DocDespacho, DocRequerimento, DocCertidao},
	FieldEspecialidade:       {DocDespacho, DocRequerimento},
	FieldEspecieDaPericia:    {DocDespacho, DocRequerimento},
	FieldAdiantamento:        {DocCertidao},
	FieldPercentual:          {DocCertidao},
	FieldParcela:             {DocCertidao},
	FieldFator:               {DocCertidao, DocDespacho},
	FieldValorArbitradoCM:    {DocCertidao},
	FieldValorArbitradoDE:    {DocDespacho},
	FieldValorArbitradoJZ:    {DocDespacho, DocRequerimento},
	FieldDataRequisicao:      {DocRequerimento},
	FieldDataArbitradoFinal:  {DocDespacho, DocCertidao},
	FieldValorArbitradoFinal: {},
}

// FieldAllowedForDoc reports whether a field may be extracted from a segment
// of the given document type.
func FieldAllowedForDoc(field string, dt DocType) bool {
	allowed, ok := fieldAllowedDocs[field]
	if !ok {
		return true
	}
	for _, a := range allowed {
		if a == dt {
			return true
		}
	}
	return false
}

// primaryFieldsByDocType names the fields a document of each type is expected
// to carry; used when ranking same-type documents for aggregation.
var primaryFieldsByDocType = map[DocType][]string{
	DocDespacho: {
		FieldProcessoAdministrativo, FieldProcessoJudicial, FieldPerito,
		FieldCPFPerito, FieldValorArbitradoJZ, FieldValorArbitradoDE,
		FieldDataArbitradoFinal,
	},
	DocCertidao: {
		FieldProcessoAdministrativo, FieldProcessoJudicial, FieldValorArbitradoCM,
		FieldDataArbitradoFinal, FieldAdiantamento, FieldPercentual,
	},
	DocRequerimento: {
		FieldProcessoAdministrativo, FieldProcessoJudicial, FieldValorArbitradoJZ,
		FieldDataRequisicao, FieldPromovente, FieldPromovido,
	},
}

// PrimaryFields returns the expected field set for a document type.
func PrimaryFields(dt DocType) []string {
	if fields, ok := primaryFieldsByDocType[dt]; ok {
		return fields
	}
	return []string{FieldProcessoAdministrativo, FieldProcessoJudicial, FieldComarca, FieldVara}
}

var commonDocOrder = []DocType{DocDespacho, DocRequerimento, DocCertidao}

// fieldDocOrder fixes, per field, which document types are consulted first
// during cross-document aggregation.
var fieldDocOrder = map[string][]DocType{
	FieldPromovente:       {DocRequerimento, DocDespacho},
	FieldPromovido:        {DocRequerimento, DocDespacho},
	FieldPerito:           {DocDespacho, DocRequerimento, DocCertidao},
	FieldCPFPerito:        {DocDespacho, DocRequerimento, DocCertidao},
	FieldEspecialidade:    {DocDespacho, DocRequerimento},
	FieldEspecieDaPericia: {DocDespacho, DocRequerimento},
	FieldValorArbitradoJZ: {DocDespacho, DocRequerimento},
	FieldValorArbitradoDE: {DocDespacho},
	FieldValorArbitradoCM: {DocCertidao},
	FieldDataRequisicao:   {DocRequerimento},
	FieldAdiantamento:     {DocCertidao},
	FieldPercentual:       {DocCertidao},
	FieldParcela:          {DocCertidao},
	FieldFator:            {DocCertidao, DocDespacho},
}

// FieldDocOrder returns the aggregation preference order for a field.
func FieldDocOrder(field string) []DocType {
	if order, ok := fieldDocOrder[field]; ok {
		return order
	}
	return commonDocOrder
}
