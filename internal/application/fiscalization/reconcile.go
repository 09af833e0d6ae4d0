package fiscalization

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

// QueryOutbox consulta la bandeja de salida de MojeRačun de la empresa.
func (o *Orchestrator) QueryOutbox(ctx context.Context, companyID string, f entity.OutboxFilter) ([]dto.OutboxHeaderResponse, error) {
	if o.outbox == nil {
		return nil, fmt.Errorf("%w: MojeRačun no está disponible en este despliegue", domain.ErrConfiguration)
	}
	company, err := o.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	qctx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()
	headers, err := o.outbox.QueryOutbox(qctx, company, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OutboxHeaderResponse, 0, len(headers))
	for _, h := range headers {
		out = append(out, dto.OutboxHeaderResponse{
			ElectronicID:     h.ElectronicID,
			DocumentNr:       h.DocumentNr,
			DocumentTypeID:   h.DocumentTypeID,
			DocumentTypeName: h.DocumentTypeName,
			StatusID:         h.StatusID,
			StatusName:       h.StatusName,
			RecipientOIB:     h.RecipientOIB,
			RecipientName:    h.RecipientName,
			Created:          h.Created,
			Updated:          h.Updated,
			Sent:             h.Sent,
			Delivered:        h.Delivered,
		})
	}
	return out, nil
}

// ReconcileOutbox actualiza el estado remoto cacheado de las facturas enviadas por MojeRačun.
// Solo cambia las que aparecen en la bandeja con un estado distinto, y lo hace en una única
// escritura por lotes.
func (o *Orchestrator) ReconcileOutbox(ctx context.Context, companyID string) (*dto.ReconcileSummary, error) {
	if o.outbox == nil {
		return nil, fmt.Errorf("%w: MojeRačun no está disponible en este despliegue", domain.ErrConfiguration)
	}
	company, err := o.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	local, err := o.invoices.ListMojeRacunSubmitted(ctx, companyID)
	if err != nil {
		return nil, err
	}
	summary := &dto.ReconcileSummary{Checked: len(local), Changes: []dto.StatusChange{}}
	if len(local) == 0 {
		return summary, nil
	}

	filter := entity.OutboxFilter{From: earliestSubmission(local)}
	qctx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	headers, err := o.outbox.QueryOutbox(qctx, company, filter)
	cancel()
	if err != nil {
		return nil, err
	}

	remote := make(map[string]string, len(headers))
	for _, h := range headers {
		remote[strconv.FormatInt(h.ElectronicID, 10)] = strings.ToLower(strings.TrimSpace(h.StatusName))
	}

	now := o.now()
	var updates []entity.MojeRacunStatusUpdate
	for _, inv := range local {
		status, ok := remote[inv.MojeRacunDocumentID]
		if !ok {
			continue
		}
		summary.Matched++
		if status == "" || status == strings.ToLower(inv.MojeRacunStatus) {
			continue
		}
		updates = append(updates, entity.MojeRacunStatusUpdate{InvoiceID: inv.ID, Status: status, UpdatedAt: now})
		summary.Changes = append(summary.Changes, dto.StatusChange{
			InvoiceID:  inv.ID,
			DocumentID: inv.MojeRacunDocumentID,
			OldStatus:  inv.MojeRacunStatus,
			NewStatus:  status,
		})
	}
	if len(updates) > 0 {
		if err := o.invoices.UpdateMojeRacunStatuses(ctx, updates); err != nil {
			return nil, err
		}
	}
	summary.Updated = len(updates)

	o.log.Info().
		Str("company_id", companyID).
		Int("checked", summary.Checked).
		Int("matched", summary.Matched).
		Int("updated", summary.Updated).
		Msg("mojeracun: conciliación de bandeja de salida")
	return summary, nil
}

// earliestSubmission acota la consulta al primer envío local, con un día de margen.
func earliestSubmission(invoices []*entity.Invoice) *time.Time {
	var first *time.Time
	for _, inv := range invoices {
		if inv.FiscalSubmittedAt == nil {
			return nil
		}
		if first == nil || inv.FiscalSubmittedAt.Before(*first) {
			first = inv.FiscalSubmittedAt
		}
	}
	if first == nil {
		return nil
	}
	from := first.Add(-24 * time.Hour)
	return &from
}
