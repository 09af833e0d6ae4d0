package fiscalization

import (
	"context"
	"fmt"

	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

// GetFiscalStatus estado de fiscalización de una factura de la empresa.
func (o *Orchestrator) GetFiscalStatus(ctx context.Context, companyID, invoiceID string) (*dto.FiscalStatusResponse, error) {
	inv, err := o.loadScoped(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	status := inv.FiscalStatus
	if status == "" {
		status = entity.FiscalStatusNotRequired
	}
	return &dto.FiscalStatusResponse{
		InvoiceID:    inv.ID,
		Number:       inv.Number,
		Status:       status,
		Method:       inv.FiscalMethod,
		JIR:          inv.JIR,
		ZKI:          inv.ZKI,
		DocumentID:   inv.MojeRacunDocumentID,
		RemoteStatus: inv.MojeRacunStatus,
		Error:        inv.FiscalError,
		SubmittedAt:  inv.FiscalSubmittedAt,
		UpdatedAt:    inv.FiscalUpdatedAt,
	}, nil
}

// DeleteInvoice elimina una factura no fiscalizada. Toma el candado de envío para no competir
// con un intento en curso.
func (o *Orchestrator) DeleteInvoice(ctx context.Context, companyID, invoiceID string) error {
	release, err := o.lock.Acquire(ctx, lockKey(invoiceID), o.cfg.LockTTL)
	if err != nil {
		return err
	}
	defer release()

	inv, err := o.loadScoped(ctx, companyID, invoiceID)
	if err != nil {
		return err
	}
	switch inv.FiscalStatus {
	case entity.FiscalStatusFiscalized:
		return fmt.Errorf("%w: la factura %s está fiscalizada y no se puede eliminar", domain.ErrConflict, inv.Number)
	case entity.FiscalStatusFiscalizing:
		if !o.isStale(inv) {
			return fmt.Errorf("%w: la factura %s tiene un envío en curso", domain.ErrConflict, inv.Number)
		}
	}
	if err := o.invoices.Delete(ctx, inv.ID); err != nil {
		return err
	}
	o.log.Info().Str("invoice_id", inv.ID).Msg("fiscal: factura eliminada")
	return nil
}
