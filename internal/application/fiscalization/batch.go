package fiscalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"golang.org/x/sync/errgroup"
)

// FiscalizeBatch procesa una lista de facturas con la misma lógica que Fiscalize. Un fallo en
// una factura nunca aborta las demás; cada resultado se persiste al terminar su intento.
// Con BatchWorkers > 1 las facturas se reparten entre un número acotado de workers.
func (o *Orchestrator) FiscalizeBatch(ctx context.Context, companyID string, invoiceIDs []string, method Method) (*dto.BatchSummary, error) {
	if _, err := o.fiscalizerFor(method); err != nil {
		return nil, err
	}
	ids := dedupe(invoiceIDs)
	results := make([]dto.FiscalResult, len(ids))

	if o.cfg.BatchWorkers <= 1 {
		for i, id := range ids {
			results[i] = o.batchItem(ctx, companyID, id, method)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.cfg.BatchWorkers)
		for i, id := range ids {
			g.Go(func() error {
				results[i] = o.batchItem(ctx, companyID, id, method)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := summarize(results)
	o.log.Info().
		Str("company_id", companyID).
		Str("method", string(method)).
		Int("total", summary.Total).
		Int("success", summary.SuccessCount).
		Int("error", summary.ErrorCount).
		Int("too_old", summary.TooOldCount).
		Int("skipped", summary.SkippedCount).
		Msg("fiscal: lote finalizado")
	return summary, nil
}

// FiscalizePending lanza un lote con todas las facturas de la empresa en not_required.
func (o *Orchestrator) FiscalizePending(ctx context.Context, companyID string, method Method) (*dto.BatchSummary, error) {
	if _, err := o.fiscalizerFor(method); err != nil {
		return nil, err
	}
	ids, err := o.invoices.ListIDsByFiscalStatus(ctx, companyID, entity.FiscalStatusNotRequired)
	if err != nil {
		return nil, err
	}
	return o.FiscalizeBatch(ctx, companyID, ids, method)
}

func (o *Orchestrator) batchItem(ctx context.Context, companyID, invoiceID string, method Method) (res dto.FiscalResult) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Str("invoice_id", invoiceID).Interface("panic", r).Msg("fiscal: pánico en el lote")
			res = dto.FiscalResult{
				InvoiceID: invoiceID,
				Status:    entity.FiscalStatusError,
				Method:    string(method),
				Message:   fmt.Sprintf("fallo interno: %v", r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return dto.FiscalResult{
			InvoiceID: invoiceID,
			Status:    entity.FiscalStatusError,
			Method:    string(method),
			Message:   "lote cancelado antes de procesar la factura: " + err.Error(),
		}
	}

	r, remote, err := o.attempt(ctx, companyID, invoiceID, method)
	if remote {
		o.pause(ctx)
	}
	if r != nil {
		return *r
	}
	res = dto.FiscalResult{InvoiceID: invoiceID, Method: string(method), Status: entity.FiscalStatusError}
	if err != nil {
		res.Message = err.Error()
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyFiscalized):
		res.Status = entity.FiscalStatusFiscalized
	case errors.Is(err, domain.ErrConflict):
		res.Status = entity.FiscalStatusFiscalizing
	}
	return res
}

// pause espera BatchDelay tras una llamada remota; termina antes si el contexto se cancela.
func (o *Orchestrator) pause(ctx context.Context) {
	if o.cfg.BatchDelay <= 0 {
		return
	}
	t := time.NewTimer(o.cfg.BatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func summarize(results []dto.FiscalResult) *dto.BatchSummary {
	s := &dto.BatchSummary{Total: len(results), Results: results}
	for _, r := range results {
		switch {
		case r.Success:
			s.SuccessCount++
		case r.Status == entity.FiscalStatusTooOld:
			s.TooOldCount++
		case r.Status == entity.FiscalStatusFiscalized, r.Status == entity.FiscalStatusFiscalizing:
			s.SkippedCount++
		default:
			s.ErrorCount++
		}
	}
	return s
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
