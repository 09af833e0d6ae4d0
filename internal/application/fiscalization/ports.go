package fiscalization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

// Method protocolo de fiscalización. Conjunto cerrado: FINA (CIS) o MojeRačun.
type Method string

const (
	MethodFina      Method = entity.FiscalMethodFina
	MethodMojeRacun Method = entity.FiscalMethodMojeRacun
)

// ParseMethod valida el método recibido; cualquier otro valor es domain.ErrInvalidInput.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodFina, MethodMojeRacun:
		return m, nil
	default:
		return "", fmt.Errorf("%w: método de fiscalización desconocido %q (fina | mojeracun)", domain.ErrInvalidInput, s)
	}
}

// Fiscalizer capacidad común de ambos protocolos. Errores de configuración y validación
// devuelven outcome nil; transporte y protocolo devuelven outcome en estado error.
type Fiscalizer interface {
	Fiscalize(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*entity.FiscalOutcome, error)
}

// OutboxQuerier consulta la bandeja de salida de MojeRačun.
type OutboxQuerier interface {
	QueryOutbox(ctx context.Context, company *entity.Company, f entity.OutboxFilter) ([]entity.OutboxHeader, error)
}

// SubmissionLock impide dos intentos simultáneos sobre la misma factura, también entre instancias.
// Acquire no espera: si la clave está tomada devuelve un error que envuelve domain.ErrConflict.
type SubmissionLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
