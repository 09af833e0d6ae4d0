package fiscalization_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/application/fiscalization"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func submittedViaMojeRacun(id, docID, status string, at time.Time) *entity.Invoice {
	inv := testInvoice(id)
	inv.FiscalStatus = entity.FiscalStatusFiscalized
	inv.FiscalMethod = entity.FiscalMethodMojeRacun
	inv.MojeRacunDocumentID = docID
	inv.MojeRacunStatus = status
	inv.FiscalSubmittedAt = &at
	return inv
}

func TestReconcileOutbox_ActualizaSoloLosCambios(t *testing.T) {
	first := baseNow.Add(-72 * time.Hour)
	a := submittedViaMojeRacun("inv-a", "101", "sent", first)
	b := submittedViaMojeRacun("inv-b", "102", "sent", baseNow.Add(-time.Hour))
	c := submittedViaMojeRacun("inv-c", "103", "delivered", baseNow.Add(-time.Hour))
	fina := testInvoice("inv-fina")
	fina.FiscalStatus = entity.FiscalStatusFiscalized
	fina.FiscalMethod = entity.FiscalMethodFina
	env := newEnv(fiscalization.DefaultConfig(), a, b, c, fina, testInvoice("inv-pending"))

	expectedFrom := first.Add(-24 * time.Hour)
	env.outbox.On("QueryOutbox", mock.Anything, mock.Anything, mock.MatchedBy(func(f entity.OutboxFilter) bool {
		return f.From != nil && f.From.Equal(expectedFrom)
	})).Return([]entity.OutboxHeader{
		{ElectronicID: 101, StatusName: "Delivered"},
		{ElectronicID: 103, StatusName: "DELIVERED"},
		{ElectronicID: 999, StatusName: "Sent"},
	}, nil).Once()

	summary, err := env.orch.ReconcileOutbox(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Changes, 1)
	assert.Equal(t, "inv-a", summary.Changes[0].InvoiceID)
	assert.Equal(t, "sent", summary.Changes[0].OldStatus)
	assert.Equal(t, "delivered", summary.Changes[0].NewStatus)

	assert.Equal(t, "delivered", env.repo.get("inv-a").MojeRacunStatus)
	assert.Equal(t, "sent", env.repo.get("inv-b").MojeRacunStatus)
	assert.Equal(t, "delivered", env.repo.get("inv-c").MojeRacunStatus)
	assert.Equal(t, entity.FiscalStatusFiscalized, env.repo.get("inv-a").FiscalStatus)
	require.Len(t, env.repo.statusBatches, 1, "una sola escritura por lotes")
	assert.Len(t, env.repo.statusBatches[0], 1)
	env.outbox.AssertExpectations(t)
}

func TestReconcileOutbox_SinFacturasNoConsulta(t *testing.T) {
	env := newEnv(fiscalization.DefaultConfig(), testInvoice("inv-1"))
	summary, err := env.orch.ReconcileOutbox(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Checked)
	assert.Empty(t, summary.Changes)
	env.outbox.AssertNotCalled(t, "QueryOutbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileOutbox_SinCambiosNoEscribe(t *testing.T) {
	env := newEnv(fiscalization.DefaultConfig(), submittedViaMojeRacun("inv-a", "101", "sent", baseNow))
	env.outbox.On("QueryOutbox", mock.Anything, mock.Anything, mock.Anything).
		Return([]entity.OutboxHeader{{ElectronicID: 101, StatusName: "Sent"}}, nil).Once()

	summary, err := env.orch.ReconcileOutbox(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 0, summary.Updated)
	assert.Empty(t, env.repo.statusBatches)
}

func TestReconcileOutbox_ErrorRemoto(t *testing.T) {
	env := newEnv(fiscalization.DefaultConfig(), submittedViaMojeRacun("inv-a", "101", "sent", baseNow))
	env.outbox.On("QueryOutbox", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: HTTP 503", domain.ErrTransport)).Once()

	summary, err := env.orch.ReconcileOutbox(context.Background(), "c1")
	assert.Nil(t, summary)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Empty(t, env.repo.statusBatches)
	assert.Equal(t, "sent", env.repo.get("inv-a").MojeRacunStatus)
}

func TestQueryOutbox(t *testing.T) {
	env := newEnv(fiscalization.DefaultConfig())
	delivered := baseNow
	year := 2025
	env.outbox.On("QueryOutbox", mock.Anything, mock.MatchedBy(func(c *entity.Company) bool { return c.ID == "c1" }),
		entity.OutboxFilter{InvoiceYear: &year}).
		Return([]entity.OutboxHeader{{ElectronicID: 101, DocumentNr: "15-2025", StatusID: 40, StatusName: "Delivered", Delivered: &delivered}}, nil).Once()

	headers, err := env.orch.QueryOutbox(context.Background(), "c1", entity.OutboxFilter{InvoiceYear: &year})
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, int64(101), headers[0].ElectronicID)
	assert.Equal(t, "15-2025", headers[0].DocumentNr)
	assert.Equal(t, "Delivered", headers[0].StatusName)
	assert.Equal(t, &delivered, headers[0].Delivered)

	_, err = env.orch.QueryOutbox(context.Background(), "c9", entity.OutboxFilter{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
