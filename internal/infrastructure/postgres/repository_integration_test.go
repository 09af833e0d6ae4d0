package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere una base PostgreSQL desechable: TEST_DATABASE_URL=postgres://...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool) (*entity.Company, *entity.Invoice) {
	t.Helper()
	ctx := context.Background()
	company := &entity.Company{Name: "Test d.o.o.", OIB: "12345678903", InVATSystem: true, MojeRacunEnabled: true}
	require.NoError(t, NewCompanyRepository(pool).Create(ctx, company))

	due := time.Now().UTC().Add(15 * 24 * time.Hour).Truncate(time.Second)
	inv := &entity.Invoice{
		CompanyID: company.ID, Number: "1/01/" + uuid.NewString()[:8],
		IssueDate: time.Now().UTC().Truncate(time.Second), DueDate: &due,
		Subtotal: decimal.NewFromInt(100), TaxAmount: decimal.NewFromInt(25),
		Total: decimal.NewFromInt(125), TaxRate: decimal.NewFromInt(25),
		Items: []entity.InvoiceItem{
			{Description: "Grijanje", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(60), TaxRate: decimal.NewFromInt(25), Amount: decimal.NewFromInt(60)},
			{Description: "Servis", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(20), TaxRate: decimal.NewFromInt(25), Amount: decimal.NewFromInt(40)},
		},
	}
	require.NoError(t, NewInvoiceRepository(pool).Create(ctx, inv))
	return company, inv
}

func TestInvoiceRepo_CicloDeFiscalizacion(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	company, inv := seed(t, pool)
	repo := NewInvoiceRepository(pool)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FiscalStatusNotRequired, got.FiscalStatus)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Grijanje", got.Items[0].Description)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(125)))

	ids, err := repo.ListIDsByFiscalStatus(ctx, company.ID, entity.FiscalStatusNotRequired)
	require.NoError(t, err)
	assert.Equal(t, []string{inv.ID}, ids)

	from := []string{entity.FiscalStatusNotRequired, entity.FiscalStatusError}
	attempt := newAttempt(entity.FiscalMethodMojeRacun, time.Now())
	require.NoError(t, repo.BeginFiscalization(ctx, inv.ID, attempt, from, time.Now().Add(-5*time.Minute)))
	err = repo.BeginFiscalization(ctx, inv.ID, newAttempt(entity.FiscalMethodMojeRacun, time.Now()), from, time.Now().Add(-5*time.Minute))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err = repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FiscalUpdatedAt, "fiscalizing registra el inicio del intento")
	assert.WithinDuration(t, attempt.StartedAt, *got.FiscalUpdatedAt, time.Millisecond)

	submitted := time.Now().UTC().Truncate(time.Second)
	err = repo.SaveOutcome(ctx, inv.ID, uuid.NewString(), &entity.FiscalOutcome{Status: entity.FiscalStatusError, UpdatedAt: submitted})
	assert.True(t, errors.Is(err, domain.ErrConflict), "otro intento no puede cerrar la factura")

	require.NoError(t, repo.SaveOutcome(ctx, inv.ID, attempt.ID, &entity.FiscalOutcome{
		Status: entity.FiscalStatusFiscalized, Method: entity.FiscalMethodMojeRacun,
		DocumentID: "394167", RemoteStatus: "sent", SubmittedAt: &submitted, UpdatedAt: submitted,
	}))

	// Una factura fiscalizada no se sobrescribe ni se borra.
	err = repo.SaveOutcome(ctx, inv.ID, attempt.ID, &entity.FiscalOutcome{Status: entity.FiscalStatusError, UpdatedAt: submitted})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, errors.Is(repo.Delete(ctx, inv.ID), domain.ErrConflict))

	submittedList, err := repo.ListMojeRacunSubmitted(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, submittedList, 1)
	assert.Equal(t, "394167", submittedList[0].MojeRacunDocumentID)

	require.NoError(t, repo.UpdateMojeRacunStatuses(ctx, []entity.MojeRacunStatusUpdate{
		{InvoiceID: inv.ID, Status: "delivered", UpdatedAt: time.Now().UTC()},
	}))
	got, err = repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FiscalStatusFiscalized, got.FiscalStatus)
	assert.Equal(t, "delivered", got.MojeRacunStatus)
	assert.Empty(t, got.ZKI)
}

func TestInvoiceRepo_CompareAndSetConcurrente(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, inv := seed(t, pool)
	repo := NewInvoiceRepository(pool)

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := newAttempt(entity.FiscalMethodFina, time.Now())
			if repo.BeginFiscalization(ctx, inv.ID, attempt, []string{entity.FiscalStatusNotRequired}, time.Now().Add(-time.Minute)) == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestInvoiceRepo_RetomaSoloIntentosAbandonados(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, inv := seed(t, pool)
	repo := NewInvoiceRepository(pool)
	from := []string{entity.FiscalStatusNotRequired}

	first := newAttempt(entity.FiscalMethodFina, time.Now().Add(-10*time.Minute))
	require.NoError(t, repo.BeginFiscalization(ctx, inv.ID, first, from, time.Time{}))

	err := repo.BeginFiscalization(ctx, inv.ID, newAttempt(entity.FiscalMethodFina, time.Now()), from, time.Time{})
	assert.True(t, errors.Is(err, domain.ErrConflict), "sin umbral no se retoma")
	err = repo.BeginFiscalization(ctx, inv.ID, newAttempt(entity.FiscalMethodFina, time.Now()), from, time.Now().Add(-15*time.Minute))
	assert.True(t, errors.Is(err, domain.ErrConflict), "aún no supera el umbral")

	second := newAttempt(entity.FiscalMethodFina, time.Now())
	require.NoError(t, repo.BeginFiscalization(ctx, inv.ID, second, from, time.Now().Add(-5*time.Minute)))

	late := &entity.FiscalOutcome{Status: entity.FiscalStatusError, Message: "tarde", UpdatedAt: time.Now()}
	assert.True(t, errors.Is(repo.SaveOutcome(ctx, inv.ID, first.ID, late), domain.ErrConflict))
	require.NoError(t, repo.SaveOutcome(ctx, inv.ID, second.ID,
		&entity.FiscalOutcome{Status: entity.FiscalStatusError, Message: "timeout", UpdatedAt: time.Now()}))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "timeout", got.FiscalError)
}

func newAttempt(method string, started time.Time) entity.FiscalAttempt {
	return entity.FiscalAttempt{ID: uuid.NewString(), Method: method, StartedAt: started.UTC()}
}

func TestInvoiceRepo_NoEncontrada(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewInvoiceRepository(pool)

	_, err := repo.GetByID(ctx, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = repo.BeginFiscalization(ctx, "no-existe", newAttempt("fina", time.Now()), []string{"not_required"}, time.Time{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "no-existe"), domain.ErrNotFound))

	_, err = NewCompanyRepository(pool).GetByID(ctx, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestInvoiceRepo_DeleteEnCascada(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	_, inv := seed(t, pool)

	require.NoError(t, NewInvoiceRepository(pool).Delete(ctx, inv.ID))
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM invoice_items WHERE invoice_id = $1`, inv.ID).Scan(&n))
	assert.Zero(t, n)
}
