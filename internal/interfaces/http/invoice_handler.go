package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/application/fiscalization"
	"github.com/rs/zerolog"
)

// invoiceFiscalizer es el contrato que necesita el handler; lo implementa *fiscalization.Orchestrator.
type invoiceFiscalizer interface {
	Fiscalize(ctx context.Context, companyID, invoiceID string, method fiscalization.Method) (*dto.FiscalResult, error)
	FiscalizeBatch(ctx context.Context, companyID string, invoiceIDs []string, method fiscalization.Method) (*dto.BatchSummary, error)
	FiscalizePending(ctx context.Context, companyID string, method fiscalization.Method) (*dto.BatchSummary, error)
	GetFiscalStatus(ctx context.Context, companyID, invoiceID string) (*dto.FiscalStatusResponse, error)
	DeleteInvoice(ctx context.Context, companyID, invoiceID string) error
}

// InvoiceHandler maneja la fiscalización de facturas (protegido).
type InvoiceHandler struct {
	uc  invoiceFiscalizer
	log zerolog.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc invoiceFiscalizer, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, log: log}
}

// Fiscalize fiscaliza una factura con el método indicado.
// POST /api/invoices/:id/fiscalize
func (h *InvoiceHandler) Fiscalize(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.FiscalizeRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	method, err := fiscalization.ParseMethod(in.Method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Fiscalize(c.UserContext(), companyID, c.Params("id"), method)
	if err != nil {
		if res != nil {
			// El intento llegó a procesarse: el resultado persistido viaja con el código del error.
			status, _ := errorStatus(err)
			return c.Status(status).JSON(res)
		}
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// FiscalizeBatch fiscaliza una lista de facturas; cada una tiene su propio resultado.
// POST /api/invoices/fiscalize/batch
func (h *InvoiceHandler) FiscalizeBatch(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.BatchFiscalizeRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	if len(in.InvoiceIDs) == 0 {
		return badRequest(c, "invoice_ids requerido")
	}
	method, err := fiscalization.ParseMethod(in.Method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	summary, err := h.uc.FiscalizeBatch(c.UserContext(), companyID, in.InvoiceIDs, method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}

// FiscalizePending fiscaliza todas las facturas de la empresa que aún no tienen intento.
// POST /api/invoices/fiscalize/pending
func (h *InvoiceHandler) FiscalizePending(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.FiscalizeRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	method, err := fiscalization.ParseMethod(in.Method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	summary, err := h.uc.FiscalizePending(c.UserContext(), companyID, method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}

// FiscalStatus estado de fiscalización de una factura.
// GET /api/invoices/:id/fiscal-status
func (h *InvoiceHandler) FiscalStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	st, err := h.uc.GetFiscalStatus(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(st)
}

// Delete elimina una factura no fiscalizada.
// DELETE /api/invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.DeleteInvoice(c.UserContext(), companyID, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
