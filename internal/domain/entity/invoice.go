package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de fiscalización de una factura.
const (
	FiscalStatusNotRequired = "not_required" // creada, sin intento de fiscalización
	FiscalStatusFiscalizing = "fiscalizing"  // envío en curso
	FiscalStatusFiscalized  = "fiscalized"   // aceptada; terminal e inmutable
	FiscalStatusError       = "error"        // fallo; un intento posterior puede fiscalizarla
	FiscalStatusTooOld      = "too_old"      // solo FINA: supera la antigüedad máxima
)

// Métodos de fiscalización.
const (
	FiscalMethodFina      = "fina"
	FiscalMethodMojeRacun = "mojeracun"
)

// Invoice representa la cabecera de una factura junto con su resultado de fiscalización.
type Invoice struct {
	ID            string
	CompanyID     string
	Number        string // p. ej. "15/01/1" o "15-2025"
	IssueDate     time.Time
	DueDate       *time.Time
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	TaxRate       decimal.Decimal // porcentaje, p. ej. 25
	PaymentMethod string          // G, K, T, O...; vacío = G (gotovina)

	BuyerName       string
	BuyerOIB        string
	BuyerAddress    string
	BuyerCity       string
	BuyerPostalCode string
	BuyerCountry    string

	Items []InvoiceItem

	FiscalStatus        string
	FiscalMethod        string
	JIR                 string // código de recibo devuelto por la CIS
	ZKI                 string // código de seguridad transmitido (solo FINA)
	MojeRacunDocumentID string // ElectronicId (solo MojeRačun)
	MojeRacunStatus     string // nombre de estado remoto en minúsculas
	FiscalError         string
	FiscalSubmittedAt   *time.Time
	FiscalUpdatedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFiscalized indica si la factura alcanzó el estado terminal.
func (i *Invoice) IsFiscalized() bool {
	return i.FiscalStatus == FiscalStatusFiscalized
}

// Clone devuelve una copia profunda: la instantánea entregada a un protocolo no comparte memoria
// con la factura persistida.
func (i *Invoice) Clone() *Invoice {
	c := *i
	if i.DueDate != nil {
		d := *i.DueDate
		c.DueDate = &d
	}
	if i.FiscalSubmittedAt != nil {
		t := *i.FiscalSubmittedAt
		c.FiscalSubmittedAt = &t
	}
	if i.FiscalUpdatedAt != nil {
		t := *i.FiscalUpdatedAt
		c.FiscalUpdatedAt = &t
	}
	c.Items = append([]InvoiceItem(nil), i.Items...)
	return &c
}
