package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y su resultado de fiscalización.
type InvoiceRepository interface {
	// GetByID devuelve la factura con sus líneas; domain.ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// BeginFiscalization pasa la factura a fiscalizing (compare-and-set) si su estado actual está
	// en from, o si sigue en fiscalizing desde antes de staleBefore (intento abandonado; cero =
	// nunca). Registra el intento y su hora de inicio. domain.ErrConflict si no se cumplía.
	BeginFiscalization(ctx context.Context, id string, attempt entity.FiscalAttempt, from []string, staleBefore time.Time) error
	// SaveOutcome persiste atómicamente el estado terminal y los campos del resultado, solo si la
	// factura sigue en fiscalizing bajo attemptID. domain.ErrConflict en otro caso.
	SaveOutcome(ctx context.Context, id, attemptID string, outcome *entity.FiscalOutcome) error
	// ListIDsByFiscalStatus IDs de facturas de la empresa con el estado dado.
	ListIDsByFiscalStatus(ctx context.Context, companyID, status string) ([]string, error)
	// ListMojeRacunSubmitted facturas fiscalizadas vía MojeRačun con ElectronicId.
	ListMojeRacunSubmitted(ctx context.Context, companyID string) ([]*entity.Invoice, error)
	// UpdateMojeRacunStatuses persiste todos los cambios en una única escritura por lotes.
	UpdateMojeRacunStatuses(ctx context.Context, updates []entity.MojeRacunStatusUpdate) error
	// Delete elimina la factura; domain.ErrConflict si está fiscalizada.
	Delete(ctx context.Context, id string) error
}
