package mojeracun_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/mojeracun"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(url string) *mojeracun.Service {
	return mojeracun.NewService(mojeracun.NewClient(http.DefaultClient, url), zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
}

func TestServiceFiscalize_Exito(t *testing.T) {
	var file string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		file = req["File"]
		_, _ = w.Write([]byte(`{"ElectronicId":394167,"StatusId":30,"StatusName":" Sent "}`))
	}))
	defer srv.Close()

	out, err := newTestService(srv.URL).Fiscalize(context.Background(), testInvoice(), testCompany())
	require.NoError(t, err)
	assert.Equal(t, entity.FiscalStatusFiscalized, out.Status)
	assert.Equal(t, entity.FiscalMethodMojeRacun, out.Method)
	assert.Equal(t, "394167", out.DocumentID)
	assert.Equal(t, "sent", out.RemoteStatus)
	assert.Empty(t, out.ZKI)
	assert.Empty(t, out.JIR)
	assert.Contains(t, out.RawResponse, "394167")
	require.NotNil(t, out.SubmittedAt)
	assert.Equal(t, testNow, *out.SubmittedAt)
	assert.Contains(t, file, "<cbc:ID>15-2025</cbc:ID>")
}

func TestServiceFiscalize_ProduccionSinOIBNoEnvia(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	company := testCompany()
	company.Environment = entity.EnvironmentProduction
	inv := testInvoice()
	inv.BuyerOIB = ""

	out, err := newTestService(srv.URL).Fiscalize(context.Background(), inv, company)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no debe enviarse ningún documento")
}

func TestServiceFiscalize_PruebasSinOIBUsaCompradorDePrueba(t *testing.T) {
	var file string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		file = req["File"]
		_, _ = w.Write([]byte(`{"ElectronicId":5,"StatusName":"Sent"}`))
	}))
	defer srv.Close()

	inv := testInvoice()
	inv.BuyerOIB = "n/a"
	out, err := newTestService(srv.URL).Fiscalize(context.Background(), inv, testCompany())
	require.NoError(t, err)
	assert.Equal(t, "5", out.DocumentID)
	assert.Contains(t, file, mojeracun.TestBuyerOIB)
	assert.NotContains(t, file, "n/a")
}

func TestServiceFiscalize_CredencialesFaltantes(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	company := testCompany()
	company.MojeRacunSecret = ""
	company.MojeRacunSoftwareID = " "

	out, err := newTestService(srv.URL).Fiscalize(context.Background(), testInvoice(), company)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Contains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "software id")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	_, err = newTestService(srv.URL).QueryOutbox(context.Background(), company, entity.OutboxFilter{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestServiceFiscalize_RechazoConservaRespuesta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"Message":"Dokument nije valjan"}`))
	}))
	defer srv.Close()

	out, err := newTestService(srv.URL).Fiscalize(context.Background(), testInvoice(), testCompany())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	require.NotNil(t, out)
	assert.Equal(t, entity.FiscalStatusError, out.Status)
	assert.Equal(t, entity.FiscalMethodMojeRacun, out.Method)
	assert.Contains(t, out.RawResponse, "Dokument nije valjan")
	assert.Contains(t, out.Message, "HTTP 422")
	assert.Empty(t, out.DocumentID)
}

func TestServiceQueryOutbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(outboxXML))
	}))
	defer srv.Close()

	headers, err := newTestService(srv.URL).QueryOutbox(context.Background(), testCompany(), entity.OutboxFilter{})
	require.NoError(t, err)
	assert.Len(t, headers, 2)
}
