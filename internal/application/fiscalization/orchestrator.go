package fiscalization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	domainfiskal "github.com/jhoicas/Fiskalizacija-api/internal/domain/fiskal"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Orchestrator gobierna la máquina de estados de fiscalización de una factura:
//
//	not_required → fiscalizing → {fiscalized | error | too_old}
//
// Cada intento toma el candado de la factura, pasa a fiscalizing con compare-and-set, delega en
// el protocolo elegido con un timeout propio y persiste el resultado con un contexto nuevo, de
// modo que una cancelación nunca deja la factura en fiscalizing.
type Orchestrator struct {
	invoices  repository.InvoiceRepository
	companies repository.CompanyRepository
	fina      Fiscalizer
	mojeRacun Fiscalizer
	outbox    OutboxQuerier
	lock      SubmissionLock
	cfg       Config
	now       func() time.Time
	log       zerolog.Logger
}

// NewOrchestrator construye el orquestador. fina o mojeRacun pueden ser nil si el despliegue no
// ofrece ese protocolo; pedirlo entonces es un error de configuración.
func NewOrchestrator(
	invoices repository.InvoiceRepository,
	companies repository.CompanyRepository,
	fina Fiscalizer,
	mojeRacun Fiscalizer,
	outbox OutboxQuerier,
	lock SubmissionLock,
	cfg Config,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		invoices:  invoices,
		companies: companies,
		fina:      fina,
		mojeRacun: mojeRacun,
		outbox:    outbox,
		lock:      lock,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		log:       log,
	}
}

// WithClock sustituye el reloj (tests).
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Fiscalize ejecuta un intento sobre una factura de la empresa. Devuelve resultado nil solo
// cuando la factura no llegó a procesarse (no existe, ya está fiscalizada, envío en curso).
func (o *Orchestrator) Fiscalize(ctx context.Context, companyID, invoiceID string, method Method) (*dto.FiscalResult, error) {
	res, _, err := o.attempt(ctx, companyID, invoiceID, method)
	return res, err
}

func (o *Orchestrator) fiscalizerFor(m Method) (Fiscalizer, error) {
	var f Fiscalizer
	switch m {
	case MethodFina:
		f = o.fina
	case MethodMojeRacun:
		f = o.mojeRacun
	default:
		_, err := ParseMethod(string(m))
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: el método %s no está disponible en este despliegue", domain.ErrConfiguration, m)
	}
	return f, nil
}

func lockKey(invoiceID string) string {
	return "fiscal:submit:" + invoiceID
}

// attempt devuelve también si hubo llamada remota, para que el lote aplique la pausa.
func (o *Orchestrator) attempt(ctx context.Context, companyID, invoiceID string, method Method) (*dto.FiscalResult, bool, error) {
	fiscalizer, err := o.fiscalizerFor(method)
	if err != nil {
		return nil, false, err
	}

	release, err := o.lock.Acquire(ctx, lockKey(invoiceID), o.cfg.LockTTL)
	if err != nil {
		return nil, false, err
	}
	defer release()

	inv, err := o.loadScoped(ctx, companyID, invoiceID)
	if err != nil {
		return nil, false, err
	}
	if inv.IsFiscalized() {
		return nil, false, fmt.Errorf("%w: factura %s", domain.ErrAlreadyFiscalized, inv.Number)
	}
	company, err := o.companies.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, false, err
	}

	if inv.FiscalStatus == entity.FiscalStatusFiscalizing {
		if !o.isStale(inv) {
			return nil, false, fmt.Errorf("%w: la factura %s tiene un envío en curso", domain.ErrConflict, inv.Number)
		}
		o.log.Warn().Str("invoice_id", inv.ID).Msg("fiscal: se retoma un intento abandonado en fiscalizing")
	}
	// El repositorio vuelve a comprobar el abandono de forma atómica: otro proceso puede haber
	// tomado la factura entre la lectura y esta escritura.
	attempt := entity.FiscalAttempt{ID: uuid.NewString(), Method: string(method), StartedAt: o.now()}
	from := []string{entity.FiscalStatusNotRequired, entity.FiscalStatusError, entity.FiscalStatusTooOld}
	staleBefore := attempt.StartedAt.Add(-o.cfg.StaleAfter)
	if err := o.invoices.BeginFiscalization(ctx, inv.ID, attempt, from, staleBefore); err != nil {
		return nil, false, err
	}

	outcome, remote, attemptErr := o.run(ctx, inv, company, method, fiscalizer)
	outcome, attemptErr = o.finalize(inv, method, outcome, attemptErr)

	if err := o.persist(inv.ID, attempt.ID, outcome); err != nil {
		o.log.Error().Err(err).
			Str("invoice_id", inv.ID).
			Str("status", outcome.Status).
			Msg("fiscal: no se pudo persistir el resultado")
		res := toResult(inv.ID, outcome)
		return &res, remote, fmt.Errorf("resultado de la factura %s no persistido: %w", inv.Number, err)
	}

	ev := o.log.Info()
	if !outcome.Success() {
		ev = o.log.Warn().Err(attemptErr)
	}
	ev.Str("invoice_id", inv.ID).
		Str("invoice_number", inv.Number).
		Str("method", string(method)).
		Str("status", outcome.Status).
		Msg("fiscal: intento finalizado")

	res := toResult(inv.ID, outcome)
	return &res, remote, attemptErr
}

// run aplica las puertas de elegibilidad y configuración y llama al protocolo.
func (o *Orchestrator) run(ctx context.Context, inv *entity.Invoice, company *entity.Company, method Method, f Fiscalizer) (*entity.FiscalOutcome, bool, error) {
	if method == MethodFina {
		if age := o.now().Sub(inv.IssueDate); age > o.cfg.MaxAge {
			msg := fmt.Sprintf("la factura %s fue emitida hace %s; FINA solo admite %d días",
				inv.Number, formatAge(age), int(o.cfg.MaxAge.Hours()/24))
			return &entity.FiscalOutcome{Status: entity.FiscalStatusTooOld, Message: msg},
				false, fmt.Errorf("%w: %s", domain.ErrTooOld, msg)
		}
	}
	if err := checkEnabled(company, method); err != nil {
		return nil, false, err
	}

	snapshot := inv.Clone()
	subtotal, tax, err := domainfiskal.ReconcileTotals(snapshot.Subtotal, snapshot.TaxAmount, snapshot.Total, effectiveRate(snapshot))
	if err != nil {
		return nil, false, fmt.Errorf("factura %s: %w", inv.Number, err)
	}
	snapshot.Subtotal, snapshot.TaxAmount, snapshot.Total = subtotal, tax, snapshot.Total.Round(2)

	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()
	out, err := o.call(attemptCtx, f, snapshot, company)
	return out, out != nil, err
}

// call aísla un pánico del protocolo (builder, firma) como error de esta factura.
func (o *Orchestrator) call(ctx context.Context, f Fiscalizer, inv *entity.Invoice, company *entity.Company) (out *entity.FiscalOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Str("invoice_id", inv.ID).Interface("panic", r).Msg("fiscal: pánico en el protocolo")
			out, err = nil, fmt.Errorf("fallo interno al fiscalizar la factura %s: %v", inv.Number, r)
		}
	}()
	return f.Fiscalize(ctx, inv, company)
}

// finalize completa el resultado a persistir y verifica que un éxito traiga exactamente el
// identificador de su protocolo.
func (o *Orchestrator) finalize(inv *entity.Invoice, method Method, out *entity.FiscalOutcome, err error) (*entity.FiscalOutcome, error) {
	if out == nil {
		msg := "el protocolo no devolvió resultado"
		if err != nil {
			msg = err.Error()
		}
		out = &entity.FiscalOutcome{Status: entity.FiscalStatusError, Message: msg}
	}
	out.Method = string(method)
	out.UpdatedAt = o.now()

	if err != nil && out.Success() {
		out.Status = entity.FiscalStatusError
	}
	if err == nil && !out.Success() && out.Status != entity.FiscalStatusTooOld {
		out.Status = entity.FiscalStatusError
		err = fmt.Errorf("%w: %s", domain.ErrProtocol, out.Message)
	}
	if err == nil {
		valid := false
		switch method {
		case MethodFina:
			valid = out.ZKI != "" && out.JIR != "" && out.DocumentID == ""
		case MethodMojeRacun:
			valid = out.DocumentID != "" && out.ZKI == ""
		}
		if !valid {
			out.Status = entity.FiscalStatusError
			out.Message = "respuesta exitosa sin el identificador del protocolo"
			err = fmt.Errorf("%w: factura %s: %s", domain.ErrProtocol, inv.Number, out.Message)
		}
	}
	if out.Message == "" {
		if err != nil {
			out.Message = err.Error()
		} else {
			out.Message = "factura fiscalizada"
		}
	}
	return out, err
}

func (o *Orchestrator) persist(invoiceID, attemptID string, out *entity.FiscalOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PersistTimeout)
	defer cancel()
	return o.invoices.SaveOutcome(ctx, invoiceID, attemptID, out)
}

// isStale mide la edad de fiscalizing desde el inicio del intento registrado.
func (o *Orchestrator) isStale(inv *entity.Invoice) bool {
	since := inv.UpdatedAt
	if inv.FiscalUpdatedAt != nil {
		since = *inv.FiscalUpdatedAt
	}
	return o.now().Sub(since) > o.cfg.StaleAfter
}

// loadScoped carga la factura y comprueba que pertenece a la empresa.
func (o *Orchestrator) loadScoped(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := o.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	return inv, nil
}

func checkEnabled(c *entity.Company, m Method) error {
	switch m {
	case MethodFina:
		if !c.FinaEnabled {
			return fmt.Errorf("%w: FINA no está habilitada para la empresa %s", domain.ErrConfiguration, c.Name)
		}
		if strings.TrimSpace(c.FinaCertPath) == "" {
			return fmt.Errorf("%w: la empresa %s no tiene certificado FINA", domain.ErrConfiguration, c.Name)
		}
	case MethodMojeRacun:
		if !c.MojeRacunEnabled {
			return fmt.Errorf("%w: MojeRačun no está habilitado para la empresa %s", domain.ErrConfiguration, c.Name)
		}
	}
	return nil
}

// effectiveRate tipo usado para corregir la deriva de redondeo: el de la factura, si no el de
// la primera línea con tipo.
func effectiveRate(inv *entity.Invoice) decimal.Decimal {
	if !inv.TaxRate.IsZero() {
		return inv.TaxRate
	}
	for _, it := range inv.Items {
		if !it.TaxRate.IsZero() {
			return it.TaxRate
		}
	}
	return decimal.Zero
}

func formatAge(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	rest := (d - time.Duration(days)*24*time.Hour).Round(time.Second)
	if rest == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %s", days, rest)
}

func toResult(invoiceID string, out *entity.FiscalOutcome) dto.FiscalResult {
	return dto.FiscalResult{
		InvoiceID:    invoiceID,
		Success:      out.Success(),
		Status:       out.Status,
		Method:       out.Method,
		Message:      out.Message,
		JIR:          out.JIR,
		ZKI:          out.ZKI,
		DocumentID:   out.DocumentID,
		RemoteStatus: out.RemoteStatus,
		RawResponse:  out.RawResponse,
	}
}
