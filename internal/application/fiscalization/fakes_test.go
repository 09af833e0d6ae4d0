package fiscalization_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// fakeInvoiceRepo repositorio en memoria con las mismas reglas de compare-and-set que postgres.
type fakeInvoiceRepo struct {
	mu            sync.Mutex
	invoices      map[string]*entity.Invoice
	saved         map[string]int
	attempts      map[string]string
	statusBatches [][]entity.MojeRacunStatusUpdate
	deleted       []string
}

func newFakeInvoiceRepo(invoices ...*entity.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{
		invoices: make(map[string]*entity.Invoice),
		saved:    make(map[string]int),
		attempts: make(map[string]string),
	}
	for _, inv := range invoices {
		if inv.FiscalStatus == "" {
			inv.FiscalStatus = entity.FiscalStatusNotRequired
		}
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeInvoiceRepo) get(id string) *entity.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoices[id].Clone()
}

func (r *fakeInvoiceRepo) savedCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[id]
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return inv.Clone(), nil
}

func (r *fakeInvoiceRepo) BeginFiscalization(_ context.Context, id string, attempt entity.FiscalAttempt, from []string, staleBefore time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if inv.FiscalStatus == s {
			allowed = true
		}
	}
	if inv.FiscalStatus == entity.FiscalStatusFiscalizing && !staleBefore.IsZero() {
		since := inv.UpdatedAt
		if inv.FiscalUpdatedAt != nil {
			since = *inv.FiscalUpdatedAt
		}
		allowed = since.Before(staleBefore)
	}
	if !allowed {
		return fmt.Errorf("%w: estado %s", domain.ErrConflict, inv.FiscalStatus)
	}
	inv.FiscalStatus = entity.FiscalStatusFiscalizing
	inv.FiscalMethod = attempt.Method
	started := attempt.StartedAt
	inv.FiscalUpdatedAt = &started
	r.attempts[id] = attempt.ID
	return nil
}

func (r *fakeInvoiceRepo) SaveOutcome(ctx context.Context, id, attemptID string, out *entity.FiscalOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.FiscalStatus != entity.FiscalStatusFiscalizing || r.attempts[id] != attemptID {
		return fmt.Errorf("%w: el intento %s ya no posee la factura", domain.ErrConflict, attemptID)
	}
	delete(r.attempts, id)
	inv.FiscalStatus = out.Status
	inv.FiscalMethod = out.Method
	inv.JIR = out.JIR
	inv.ZKI = out.ZKI
	inv.MojeRacunDocumentID = out.DocumentID
	inv.MojeRacunStatus = out.RemoteStatus
	inv.FiscalError = ""
	if !out.Success() {
		inv.FiscalError = out.Message
	}
	inv.FiscalSubmittedAt = out.SubmittedAt
	updated := out.UpdatedAt
	inv.FiscalUpdatedAt = &updated
	r.saved[id]++
	return nil
}

func (r *fakeInvoiceRepo) ListIDsByFiscalStatus(_ context.Context, companyID, status string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, inv := range r.invoices {
		if inv.CompanyID == companyID && inv.FiscalStatus == status {
			ids = append(ids, inv.ID)
		}
	}
	return ids, nil
}

func (r *fakeInvoiceRepo) ListMojeRacunSubmitted(_ context.Context, companyID string) ([]*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID == companyID && inv.IsFiscalized() &&
			inv.FiscalMethod == entity.FiscalMethodMojeRacun && inv.MojeRacunDocumentID != "" {
			out = append(out, inv.Clone())
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) UpdateMojeRacunStatuses(_ context.Context, updates []entity.MojeRacunStatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusBatches = append(r.statusBatches, updates)
	for _, u := range updates {
		if inv, ok := r.invoices[u.InvoiceID]; ok {
			inv.MojeRacunStatus = u.Status
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	if inv.IsFiscalized() {
		return domain.ErrConflict
	}
	delete(r.invoices, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeCompanyRepo map[string]*entity.Company

func (r fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

// MockFiscalizer mock de un protocolo.
type MockFiscalizer struct {
	mock.Mock
}

func (m *MockFiscalizer) Fiscalize(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*entity.FiscalOutcome, error) {
	args := m.Called(ctx, inv, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FiscalOutcome), args.Error(1)
}

// fiscalizerFunc protocolo programable por factura; cuenta las llamadas.
type fiscalizerFunc struct {
	calls int32
	fn    func(ctx context.Context, inv *entity.Invoice) (*entity.FiscalOutcome, error)
}

func (f *fiscalizerFunc) Fiscalize(ctx context.Context, inv *entity.Invoice, _ *entity.Company) (*entity.FiscalOutcome, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fn(ctx, inv)
}

func (f *fiscalizerFunc) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

// MockOutbox mock de la consulta de bandeja de salida.
type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) QueryOutbox(ctx context.Context, company *entity.Company, f entity.OutboxFilter) ([]entity.OutboxHeader, error) {
	args := m.Called(ctx, company, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OutboxHeader), args.Error(1)
}
