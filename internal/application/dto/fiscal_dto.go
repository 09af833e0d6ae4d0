package dto

import "time"

// FiscalizeRequest body para POST /api/invoices/:id/fiscalize y /api/invoices/fiscalize/pending.
type FiscalizeRequest struct {
	Method string `json:"method"` // fina | mojeracun
}

// BatchFiscalizeRequest body para POST /api/invoices/fiscalize/batch.
type BatchFiscalizeRequest struct {
	InvoiceIDs []string `json:"invoice_ids"`
	Method     string   `json:"method"`
}

// FiscalResult resultado de un intento sobre una factura.
type FiscalResult struct {
	InvoiceID    string `json:"invoice_id"`
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	Method       string `json:"method,omitempty"`
	Message      string `json:"message"`
	JIR          string `json:"jir,omitempty"`           // código de recibo (FINA)
	ZKI          string `json:"zki,omitempty"`           // código de seguridad (FINA)
	DocumentID   string `json:"document_id,omitempty"`   // ElectronicId (MojeRačun)
	RemoteStatus string `json:"remote_status,omitempty"` // estado remoto (MojeRačun)
	RawResponse  string `json:"raw_response,omitempty"`
}

// BatchSummary resumen de un lote. Skipped cuenta las facturas ya fiscalizadas o con un envío en curso.
type BatchSummary struct {
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	ErrorCount   int            `json:"error_count"`
	TooOldCount  int            `json:"too_old_count"`
	SkippedCount int            `json:"skipped_count"`
	Results      []FiscalResult `json:"results"`
}

// FiscalStatusResponse estado de fiscalización para GET /api/invoices/:id/fiscal-status.
type FiscalStatusResponse struct {
	InvoiceID    string     `json:"invoice_id"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	Method       string     `json:"method,omitempty"`
	JIR          string     `json:"jir,omitempty"`
	ZKI          string     `json:"zki,omitempty"`
	DocumentID   string     `json:"document_id,omitempty"`
	RemoteStatus string     `json:"remote_status,omitempty"`
	Error        string     `json:"error,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// OutboxQueryRequest body para POST /api/mojeracun/outbox. Fechas en RFC 3339.
type OutboxQueryRequest struct {
	ElectronicID  *int64     `json:"electronic_id,omitempty"`
	StatusID      *int       `json:"status_id,omitempty"`
	InvoiceYear   *int       `json:"invoice_year,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
}

// OutboxHeaderResponse cabecera de documento de la bandeja de salida.
type OutboxHeaderResponse struct {
	ElectronicID     int64      `json:"electronic_id"`
	DocumentNr       string     `json:"document_nr"`
	DocumentTypeID   int        `json:"document_type_id"`
	DocumentTypeName string     `json:"document_type_name,omitempty"`
	StatusID         int        `json:"status_id"`
	StatusName       string     `json:"status_name"`
	RecipientOIB     string     `json:"recipient_oib,omitempty"`
	RecipientName    string     `json:"recipient_name,omitempty"`
	Created          *time.Time `json:"created,omitempty"`
	Updated          *time.Time `json:"updated,omitempty"`
	Sent             *time.Time `json:"sent,omitempty"`
	Delivered        *time.Time `json:"delivered,omitempty"`
}

// StatusChange cambio de estado remoto aplicado por la conciliación.
type StatusChange struct {
	InvoiceID  string `json:"invoice_id"`
	DocumentID string `json:"document_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

// ReconcileSummary resultado de POST /api/mojeracun/outbox/reconcile.
type ReconcileSummary struct {
	Checked int            `json:"checked"` // facturas locales enviadas por MojeRačun
	Matched int            `json:"matched"` // encontradas en la bandeja remota
	Updated int            `json:"updated"`
	Changes []StatusChange `json:"changes"`
}
