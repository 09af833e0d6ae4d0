package entity

import "github.com/shopspring/decimal"

// InvoiceItem representa una línea de la factura.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	Quantity    decimal.Decimal
	Unit        string // texto libre: kom, kg, m2, kWh...
	UnitPrice   decimal.Decimal
	KPDCode     string          // clasificación KPD ya asignada; vacío = resolver por descripción
	TaxRate     decimal.Decimal // porcentaje
	TaxCategory string          // S, Z...; vacío = derivar del tipo
	Amount      decimal.Decimal // importe neto de la línea
}
