package fiskal

import "github.com/shopspring/decimal"

// FormatAmount importe con 2 decimales y punto como separador.
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// FormatQuantity cantidad con 3 decimales.
func FormatQuantity(d decimal.Decimal) string {
	return d.Round(3).StringFixed(3)
}

// FormatRate tipo impositivo sin ceros sobrantes (25, 13, 5.5).
func FormatRate(d decimal.Decimal) string {
	return d.Round(2).String()
}
