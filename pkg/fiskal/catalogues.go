// Package fiskal contiene catálogos y validaciones para la fiscalización de facturas
// en Croacia (CIS/FINA y e-Račun vía MojeRačun).
package fiskal

import "strings"

// =============================================================================
// Način plaćanja (CIS, elemento NacinPlac)
// =============================================================================

const (
	PaymentCash     = "G" // gotovina
	PaymentCard     = "K" // kartice
	PaymentCheque   = "C" // ček
	PaymentTransfer = "T" // transakcijski račun
	PaymentOther    = "O" // ostalo
)

// ValidPaymentMethods códigos de forma de pago aceptados por la CIS.
var ValidPaymentMethods = map[string]bool{
	PaymentCash: true, PaymentCard: true, PaymentCheque: true,
	PaymentTransfer: true, PaymentOther: true,
}

// PaymentMethodOrDefault devuelve el código de pago o G si está vacío o no es válido.
func PaymentMethodOrDefault(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if ValidPaymentMethods[c] {
		return c
	}
	return PaymentCash
}

// =============================================================================
// Categorías de impuesto (UNCL5305) usadas en UBL
// =============================================================================

const (
	TaxCategoryStandard   = "S" // tipo estándar o reducido
	TaxCategoryZeroRated  = "Z" // tipo cero
	TaxSchemeVAT          = "VAT"
	PaymentMeansTransfer  = "30" // credit transfer
	InvoiceTypeCommercial = "380"
	CurrencyEUR           = "EUR"
)

// =============================================================================
// Unidades de medida (UN/ECE Rec. 20)
// =============================================================================

const (
	UnitEach        = "EA"
	UnitPiece       = "H87"
	UnitKilogram    = "KGM"
	UnitSquareMetre = "MTK"
	UnitCubicMetre  = "MTQ"
	UnitKilowattH   = "KWH"
	UnitHour        = "HUR"
	UnitLitre       = "LTR"
	UnitMetre       = "MTR"
	UnitMonth       = "MON"
)

var unitCodes = map[string]string{
	"kom":   UnitPiece,
	"kos":   UnitPiece,
	"pcs":   UnitPiece,
	"kg":    UnitKilogram,
	"m2":    UnitSquareMetre,
	"m²":    UnitSquareMetre,
	"m3":    UnitCubicMetre,
	"m³":    UnitCubicMetre,
	"kwh":   UnitKilowattH,
	"h":     UnitHour,
	"sat":   UnitHour,
	"sati":  UnitHour,
	"l":     UnitLitre,
	"lit":   UnitLitre,
	"m":     UnitMetre,
	"mj":    UnitMonth,
	"mjes":  UnitMonth,
	"mjsec": UnitMonth,
}

// UnitCode mapea la unidad en texto libre a su código UN/ECE; EA si no se reconoce.
func UnitCode(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	if code, ok := unitCodes[u]; ok {
		return code
	}
	return UnitEach
}
