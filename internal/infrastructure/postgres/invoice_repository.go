package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, number, issue_date, due_date, subtotal, tax_amount, total, tax_rate, payment_method,
	buyer_name, buyer_oib, buyer_address, buyer_city, buyer_postal_code, buyer_country,
	fiscal_status, COALESCE(fiscal_method, ''), COALESCE(jir, ''), COALESCE(zki, ''),
	COALESCE(mojeracun_document_id, ''), COALESCE(mojeracun_status, ''), COALESCE(fiscal_error, ''),
	fiscal_submitted_at, fiscal_updated_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &inv.IssueDate, &inv.DueDate,
		&inv.Subtotal, &inv.TaxAmount, &inv.Total, &inv.TaxRate, &inv.PaymentMethod,
		&inv.BuyerName, &inv.BuyerOIB, &inv.BuyerAddress, &inv.BuyerCity, &inv.BuyerPostalCode, &inv.BuyerCountry,
		&inv.FiscalStatus, &inv.FiscalMethod, &inv.JIR, &inv.ZKI,
		&inv.MojeRacunDocumentID, &inv.MojeRacunStatus, &inv.FiscalError,
		&inv.FiscalSubmittedAt, &inv.FiscalUpdatedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create persiste la cabecera y sus líneas en una transacción.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.FiscalStatus == "" {
		invoice.FiscalStatus = entity.FiscalStatusNotRequired
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invoices (id, company_id, number, issue_date, due_date, subtotal, tax_amount, total, tax_rate,
				payment_method, buyer_name, buyer_oib, buyer_address, buyer_city, buyer_postal_code, buyer_country,
				fiscal_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
		_, err := tx.Exec(ctx, query,
			invoice.ID, invoice.CompanyID, invoice.Number, invoice.IssueDate, invoice.DueDate,
			invoice.Subtotal, invoice.TaxAmount, invoice.Total, invoice.TaxRate, invoice.PaymentMethod,
			invoice.BuyerName, invoice.BuyerOIB, invoice.BuyerAddress, invoice.BuyerCity,
			invoice.BuyerPostalCode, invoice.BuyerCountry, invoice.FiscalStatus,
			invoice.CreatedAt, invoice.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: el número de factura %s ya existe", domain.ErrConflict, invoice.Number)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range invoice.Items {
			item := &invoice.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.InvoiceID = invoice.ID
			if item.Position == 0 {
				item.Position = i + 1
			}
			batch.Queue(`
				INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit, unit_price,
					kpd_code, tax_rate, tax_category, amount)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				item.ID, item.InvoiceID, item.Position, item.Description, item.Quantity, item.Unit,
				item.UnitPrice, item.KPDCode, item.TaxRate, item.TaxCategory, item.Amount,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert invoice items: %w", err)
		}
		return nil
	})
}

// GetByID obtiene la factura con sus líneas ordenadas por posición.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, position, description, quantity, unit, unit_price, kpd_code, tax_rate, tax_category, amount
		FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	inv.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.InvoiceItem, error) {
		var it entity.InvoiceItem
		err := row.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description, &it.Quantity, &it.Unit,
			&it.UnitPrice, &it.KPDCode, &it.TaxRate, &it.TaxCategory, &it.Amount)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan invoice items: %w", err)
	}
	return inv, nil
}

// BeginFiscalization compare-and-set hacia fiscalizing; solo una petición concurrente gana.
// fiscal_updated_at marca el inicio del intento y es la referencia para detectar abandonos.
func (r *InvoiceRepo) BeginFiscalization(ctx context.Context, id string, attempt entity.FiscalAttempt, from []string, staleBefore time.Time) error {
	var stale *time.Time
	if !staleBefore.IsZero() {
		stale = &staleBefore
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET fiscal_status     = 'fiscalizing',
		    fiscal_method     = $2,
		    fiscal_attempt_id = $3,
		    fiscal_updated_at = $4,
		    updated_at        = now()
		WHERE id = $1
		  AND (fiscal_status = ANY($5)
		       OR (fiscal_status = 'fiscalizing'
		           AND $6::timestamptz IS NOT NULL
		           AND COALESCE(fiscal_updated_at, updated_at) < $6::timestamptz))`,
		id, attempt.Method, attempt.ID, attempt.StartedAt, from, stale,
	)
	if err != nil {
		return fmt.Errorf("begin fiscalization: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missingOrConflict(ctx, id)
}

// SaveOutcome escribe en una sola sentencia el estado terminal y los campos del resultado.
// Solo el intento que posee la factura puede cerrarla: un escritor tardío recibe ErrConflict.
func (r *InvoiceRepo) SaveOutcome(ctx context.Context, id, attemptID string, out *entity.FiscalOutcome) error {
	fiscalError := ""
	if !out.Success() {
		fiscalError = out.Message
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET fiscal_status         = $2,
		    fiscal_method         = $3,
		    jir                   = $4,
		    zki                   = $5,
		    mojeracun_document_id = $6,
		    mojeracun_status      = $7,
		    fiscal_error          = $8,
		    fiscal_raw_response   = $9,
		    fiscal_submitted_at   = $10,
		    fiscal_updated_at     = $11,
		    fiscal_attempt_id     = NULL,
		    updated_at            = $11
		WHERE id = $1 AND fiscal_status = 'fiscalizing' AND fiscal_attempt_id = $12`,
		id, out.Status, nullIfEmpty(out.Method), nullIfEmpty(out.JIR), nullIfEmpty(out.ZKI),
		nullIfEmpty(out.DocumentID), nullIfEmpty(out.RemoteStatus), nullIfEmpty(fiscalError),
		nullIfEmpty(out.RawResponse), out.SubmittedAt, out.UpdatedAt, attemptID,
	)
	if err != nil {
		return fmt.Errorf("save fiscal outcome: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missingOrConflict(ctx, id)
}

// ListIDsByFiscalStatus IDs de la empresa en el estado dado, en orden de emisión.
func (r *InvoiceRepo) ListIDsByFiscalStatus(ctx context.Context, companyID, status string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM invoices
		WHERE company_id = $1 AND fiscal_status = $2
		ORDER BY issue_date, number`, companyID, status)
	if err != nil {
		return nil, fmt.Errorf("list invoices by fiscal status: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan invoice ids: %w", err)
	}
	return ids, nil
}

// ListMojeRacunSubmitted cabeceras fiscalizadas vía MojeRačun (sin líneas).
func (r *InvoiceRepo) ListMojeRacunSubmitted(ctx context.Context, companyID string) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, `SELECT `+invoiceColumns+`
		FROM invoices
		WHERE company_id = $1 AND fiscal_status = 'fiscalized'
		  AND fiscal_method = 'mojeracun' AND mojeracun_document_id IS NOT NULL
		ORDER BY fiscal_submitted_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list mojeracun invoices: %w", err)
	}
	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan mojeracun invoices: %w", err)
	}
	return invoices, nil
}

// UpdateMojeRacunStatuses aplica todos los cambios en una transacción con un único batch.
func (r *InvoiceRepo) UpdateMojeRacunStatuses(ctx context.Context, updates []entity.MojeRacunStatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(`
				UPDATE invoices
				SET mojeracun_status = $2, fiscal_updated_at = $3, updated_at = $3
				WHERE id = $1 AND fiscal_status = 'fiscalized'`,
				u.InvoiceID, u.Status, u.UpdatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("update mojeracun statuses: %w", err)
		}
		return nil
	})
}

// Delete elimina la factura (las líneas caen por cascada). Una factura fiscalizada no se borra.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND fiscal_status <> 'fiscalized'`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missingOrConflict(ctx, id)
}

// missingOrConflict distingue, tras un UPDATE/DELETE condicional sin filas, entre inexistente y estado incompatible.
func (r *InvoiceRepo) missingOrConflict(ctx context.Context, id string) error {
	var status string
	err := r.q.QueryRow(ctx, `SELECT fiscal_status FROM invoices WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
		}
		return fmt.Errorf("get fiscal status: %w", err)
	}
	return fmt.Errorf("%w: factura %s en estado %s", domain.ErrConflict, id, status)
}
