package fiskal

import (
	"fmt"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxRoundingDrift diferencia máxima entre subtotal+impuesto y total que se corrige automáticamente.
var MaxRoundingDrift = decimal.RequireFromString("0.02")

var hundred = decimal.NewFromInt(100)

// ReconcileTotals garantiza subtotal + impuesto = total. Con una deriva de redondeo pequeña
// recalcula el subtotal desde el total usando el tipo propio de la factura; una deriva mayor
// es un error de validación.
func ReconcileTotals(subtotal, tax, total, rate decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	subtotal, tax, total = subtotal.Round(2), tax.Round(2), total.Round(2)
	drift := subtotal.Add(tax).Sub(total).Abs()
	if drift.IsZero() {
		return subtotal, tax, nil
	}
	if drift.GreaterThan(MaxRoundingDrift) {
		return subtotal, tax, fmt.Errorf("%w: subtotal %s + impuesto %s no cuadra con total %s",
			domain.ErrValidation, subtotal.StringFixed(2), tax.StringFixed(2), total.StringFixed(2))
	}
	if rate.IsZero() {
		return total, decimal.Zero, nil
	}
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	newSubtotal := total.Div(divisor).Round(2)
	return newSubtotal, total.Sub(newSubtotal), nil
}
