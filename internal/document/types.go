// Package document computes the fiscal-document payload submitted to the
// tax-authority gateway (NF-e model 55 field layout). All functions are pure;
// persistence and transport live elsewhere.
package document

import "github.com/shopspring/decimal"

// Destination classification (idDest).
const (
	DestinationSameState  = 1
	DestinationInterstate = 2
	DestinationForeign    = 3
)

// State-registration indicator of the recipient (indIEDest).
const (
	IEIndicatorContributor    = 1
	IEIndicatorExempt         = 2
	IEIndicatorNonContributor = 9
)

// Document is the full emission payload, field names per the authority API.
type Document struct {
	IssuedAt        string `json:"data_emissao"`
	DispatchedAt    string `json:"data_entrada_saida"`
	OperationNature string `json:"natureza_operacao"`
	DocumentType    string `json:"tipo_documento,omitempty"`
	EmissionPurpose string `json:"finalidade_emissao,omitempty"`
	Series          string `json:"serie,omitempty"`
	Number          int64  `json:"numero,omitempty"`

	EndConsumer          string `json:"consumidor_final,omitempty"`
	Destination          int    `json:"local_destino,omitempty"`
	RecipientIEIndicator int    `json:"indicador_inscricao_estadual_destinatario,omitempty"`
	EmitterRegime        string `json:"regime_tributario_emitente,omitempty"`
	BuyerPresence        string `json:"presenca_comprador,omitempty"`

	EmitterCNPJ              string `json:"cnpj_emitente"`
	EmitterName              string `json:"nome_emitente"`
	EmitterTradeName         string `json:"nome_fantasia_emitente,omitempty"`
	EmitterStreet            string `json:"logradouro_emitente"`
	EmitterNumber            string `json:"numero_emitente"`
	EmitterDistrict          string `json:"bairro_emitente"`
	EmitterCity              string `json:"municipio_emitente"`
	EmitterState             string `json:"uf_emitente"`
	EmitterPostalCode        string `json:"cep_emitente"`
	EmitterStateRegistration string `json:"inscricao_estadual_emitente"`
	EmitterPhone             string `json:"telefone_emitente,omitempty"`

	RecipientName              string `json:"nome_destinatario"`
	RecipientCPF               string `json:"cpf_destinatario,omitempty"`
	RecipientCNPJ              string `json:"cnpj_destinatario,omitempty"`
	RecipientStateRegistration string `json:"inscricao_estadual_destinatario,omitempty"`
	RecipientStreet            string `json:"logradouro_destinatario"`
	RecipientNumber            string `json:"numero_destinatario"`
	RecipientComplement        string `json:"complemento_destinatario,omitempty"`
	RecipientDistrict          string `json:"bairro_destinatario"`
	RecipientCity              string `json:"municipio_destinatario"`
	RecipientState             string `json:"uf_destinatario"`
	RecipientCountry           string `json:"pais_destinatario"`
	RecipientPostalCode        string `json:"cep_destinatario"`
	RecipientPhone             string `json:"telefone_destinatario,omitempty"`

	FreightTotal   decimal.Decimal  `json:"valor_frete"`
	InsuranceTotal decimal.Decimal  `json:"valor_seguro"`
	Total          decimal.Decimal  `json:"valor_total"`
	ProductsTotal  decimal.Decimal  `json:"valor_produtos"`
	DiscountTotal  *decimal.Decimal `json:"valor_desconto,omitempty"`
	FreightMode    string           `json:"modalidade_frete,omitempty"`

	IntermediaryIndicator string `json:"indicador_intermediario,omitempty"`
	IntermediaryCNPJ      string `json:"cnpj_intermediador,omitempty"`
	IntermediaryID        string `json:"identificador_intermediador,omitempty"`

	AdditionalInformation string `json:"informacoes_adicionais_contribuinte,omitempty"`

	SelectiveTaxTotal *decimal.Decimal `json:"total_is,omitempty"`
	IBSTotal          *decimal.Decimal `json:"total_ibs,omitempty"`
	CBSTotal          *decimal.Decimal `json:"total_cbs,omitempty"`

	// FreightInBase mirrors indTot: freight joins the ICMS/PIS/COFINS base.
	FreightInBase bool `json:"incluir_frete_base_ipi"`

	Items []Item `json:"items"`
}

// Item is one document line.
type Item struct {
	Number              string          `json:"numero_item"`
	ProductCode         string          `json:"codigo_produto"`
	Description         string          `json:"descricao"`
	CFOP                string          `json:"cfop"`
	CommercialUnit      string          `json:"unidade_comercial"`
	CommercialQuantity  decimal.Decimal `json:"quantidade_comercial"`
	CommercialUnitValue decimal.Decimal `json:"valor_unitario_comercial"`
	TaxableUnitValue    decimal.Decimal `json:"valor_unitario_tributavel"`
	TaxableUnit         string          `json:"unidade_tributavel"`
	NCM                 string          `json:"codigo_ncm"`
	TaxableQuantity     decimal.Decimal `json:"quantidade_tributavel"`
	GrossValue          decimal.Decimal `json:"valor_bruto"`
	FreightValue        *decimal.Decimal `json:"valor_frete,omitempty"`
	CommercialBarcode   string          `json:"codigo_barras_comercial,omitempty"`
	TaxableBarcode      string          `json:"codigo_barras_tributavel,omitempty"`

	ICMSSituation    string           `json:"icms_situacao_tributaria"`
	ICMSOrigin       string           `json:"icms_origem"`
	ICMSBaseModality string           `json:"icms_modalidade_base_calculo,omitempty"`
	ICMSBase         *decimal.Decimal `json:"icms_base_calculo,omitempty"`
	ICMSRate         *decimal.Decimal `json:"icms_aliquota,omitempty"`
	ICMSValue        *decimal.Decimal `json:"icms_valor,omitempty"`

	// Interstate differential group (ICMSUFDest).
	DifalBase            *decimal.Decimal `json:"icms_base_calculo_uf_destino,omitempty"`
	DifalIntrastateRate  *decimal.Decimal `json:"icms_aliquota_interna_uf_destino,omitempty"`
	DifalInterstateRate  *decimal.Decimal `json:"icms_aliquota_interestadual,omitempty"`
	DifalShare           *decimal.Decimal `json:"icms_percentual_partilha,omitempty"`
	FCPRate              *decimal.Decimal `json:"fcp_percentual_uf_destino,omitempty"`
	FCPValue             *decimal.Decimal `json:"fcp_valor_uf_destino,omitempty"`
	FCPBase              *decimal.Decimal `json:"fcp_base_calculo_uf_destino,omitempty"`
	DifalOriginValue     *decimal.Decimal `json:"icms_valor_uf_remetente,omitempty"`
	DifalDestinationValue *decimal.Decimal `json:"icms_valor_uf_destino,omitempty"`

	PISSituation string           `json:"pis_situacao_tributaria,omitempty"`
	PISBase      *decimal.Decimal `json:"pis_base_calculo,omitempty"`
	PISRate      *decimal.Decimal `json:"pis_aliquota_porcentual,omitempty"`
	PISValue     *decimal.Decimal `json:"pis_valor,omitempty"`

	COFINSSituation string           `json:"cofins_situacao_tributaria,omitempty"`
	COFINSBase      *decimal.Decimal `json:"cofins_base_calculo,omitempty"`
	COFINSRate      *decimal.Decimal `json:"cofins_aliquota_porcentual,omitempty"`
	COFINSValue     *decimal.Decimal `json:"cofins_valor,omitempty"`

	IPISituation      string `json:"ipi_situacao_tributaria,omitempty"`
	IPILegalFramework string `json:"ipi_codigo_enquadramento_legal,omitempty"`

	IBSCBSSituation      string           `json:"ibs_cbs_situacao_tributaria,omitempty"`
	IBSCBSClassification string           `json:"ibs_cbs_classificacao_tributaria,omitempty"`
	IBSCBSBase           *decimal.Decimal `json:"ibs_cbs_base_calculo,omitempty"`
	IBSStateRate         *decimal.Decimal `json:"ibs_uf_aliquota,omitempty"`
	IBSStateValue        *decimal.Decimal `json:"ibs_uf_valor,omitempty"`
	IBSCityRate          *decimal.Decimal `json:"ibs_mun_aliquota,omitempty"`
	IBSCityValue         *decimal.Decimal `json:"ibs_mun_valor,omitempty"`
	IBSTotalValue        *decimal.Decimal `json:"ibs_valor_total,omitempty"`
	CBSRate              *decimal.Decimal `json:"cbs_aliquota,omitempty"`
	CBSValue             *decimal.Decimal `json:"cbs_valor,omitempty"`
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// round2 rounds to cents, the boundary the authority schema defines.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
