package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Fiskalizacija-api/pkg/jwt"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoices  invoiceFiscalizer
	Outbox    outboxService
	JWTSecret string
	JWTIssuer string
	Log       zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	writers := RequireRole(jwt.RoleAdmin, jwt.RoleFacturador)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleFacturador, jwt.RoleContador)

	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Log)
	// Las rutas fijas van antes de /:id.
	invoices.Post("/fiscalize/batch", writers, invoiceHandler.FiscalizeBatch)
	invoices.Post("/fiscalize/pending", writers, invoiceHandler.FiscalizePending)
	invoices.Post("/:id/fiscalize", writers, invoiceHandler.Fiscalize)
	invoices.Get("/:id/fiscal-status", readers, invoiceHandler.FiscalStatus)
	invoices.Delete("/:id", RequireRole(jwt.RoleAdmin), invoiceHandler.Delete)

	mojeRacun := api.Group("/mojeracun")
	mojeRacunHandler := NewMojeRacunHandler(deps.Outbox, deps.Log)
	mojeRacun.Post("/outbox", readers, mojeRacunHandler.QueryOutbox)
	mojeRacun.Post("/outbox/reconcile", writers, mojeRacunHandler.Reconcile)
}
