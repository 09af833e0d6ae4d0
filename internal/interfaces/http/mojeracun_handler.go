package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/rs/zerolog"
)

// outboxService consulta y concilia la bandeja de salida de MojeRačun.
type outboxService interface {
	QueryOutbox(ctx context.Context, companyID string, f entity.OutboxFilter) ([]dto.OutboxHeaderResponse, error)
	ReconcileOutbox(ctx context.Context, companyID string) (*dto.ReconcileSummary, error)
}

// MojeRacunHandler expone la bandeja de salida de MojeRačun (protegido).
type MojeRacunHandler struct {
	uc  outboxService
	log zerolog.Logger
}

// NewMojeRacunHandler construye el handler.
func NewMojeRacunHandler(uc outboxService, log zerolog.Logger) *MojeRacunHandler {
	return &MojeRacunHandler{uc: uc, log: log}
}

// QueryOutbox consulta la bandeja de salida con los filtros del cuerpo (todos opcionales).
// POST /api/mojeracun/outbox
func (h *MojeRacunHandler) QueryOutbox(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.OutboxQueryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "cuerpo inválido")
		}
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return badRequest(c, "to anterior a from")
	}
	headers, err := h.uc.QueryOutbox(c.UserContext(), companyID, entity.OutboxFilter{
		ElectronicID:  in.ElectronicID,
		StatusID:      in.StatusID,
		InvoiceYear:   in.InvoiceYear,
		InvoiceNumber: in.InvoiceNumber,
		From:          in.From,
		To:            in.To,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"documents": headers, "count": len(headers)})
}

// Reconcile actualiza el estado remoto de las facturas enviadas por MojeRačun.
// POST /api/mojeracun/outbox/reconcile
func (h *MojeRacunHandler) Reconcile(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	summary, err := h.uc.ReconcileOutbox(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}
