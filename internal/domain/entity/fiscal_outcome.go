package entity

import "time"

// FiscalOutcome es el resultado de un intento de fiscalización, tal y como se persiste.
// En un resultado exitoso solo uno de ZKI / DocumentID está informado, según Method.
type FiscalOutcome struct {
	Status       string
	Method       string
	JIR          string
	ZKI          string
	DocumentID   string
	RemoteStatus string
	Message      string
	RawResponse  string
	SubmittedAt  *time.Time
	UpdatedAt    time.Time
}

// FiscalAttempt identifica un intento en curso. El ID es el testigo con el que se persiste su
// resultado: si otro intento retomó la factura, la escritura del primero se rechaza.
type FiscalAttempt struct {
	ID        string
	Method    string
	StartedAt time.Time
}

// Success indica si el intento dejó la factura fiscalizada.
func (o *FiscalOutcome) Success() bool {
	return o != nil && o.Status == FiscalStatusFiscalized
}

// OutboxFilter filtro de consulta a la bandeja de salida de MojeRačun.
type OutboxFilter struct {
	ElectronicID  *int64
	StatusID      *int
	InvoiceYear   *int
	InvoiceNumber string
	From          *time.Time
	To            *time.Time
}

// OutboxHeader cabecera de documento devuelta por la consulta de la bandeja de salida.
type OutboxHeader struct {
	ElectronicID     int64
	DocumentNr       string
	DocumentTypeID   int
	DocumentTypeName string
	StatusID         int
	StatusName       string
	RecipientOIB     string
	RecipientName    string
	Created          *time.Time
	Updated          *time.Time
	Sent             *time.Time
	Delivered        *time.Time
}

// MojeRacunStatusUpdate cambio de estado remoto a persistir durante la reconciliación.
type MojeRacunStatusUpdate struct {
	InvoiceID string
	Status    string
	UpdatedAt time.Time
}
