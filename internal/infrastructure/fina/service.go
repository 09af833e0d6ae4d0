package fina

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	domainfiskal "github.com/jhoicas/Fiskalizacija-api/internal/domain/fiskal"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/fina/signer"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/rs/zerolog"
)

// CertLoader carga el certificado del emisor (inyectable en tests).
type CertLoader func(path, password string) (tls.Certificate, error)

// Service implementa la fiscalización vía CIS:
//
//	ZKI → RacunZahtjev → firma XML-DSig → sobre SOAP → POST → interpretación
type Service struct {
	builder    *RequestBuilder
	signer     fiskal.Signer
	client     *SOAPClient
	loadCert   CertLoader
	endpoint   string // vacío = según el entorno del emisor
	now        func() time.Time
	newMessage func() string
	log        zerolog.Logger
}

// Option configura el Service.
type Option func(*Service)

// WithEndpoint fija la URL de la CIS (tests o proxy).
func WithEndpoint(url string) Option { return func(s *Service) { s.endpoint = url } }

// WithCertLoader sustituye la carga de certificados.
func WithCertLoader(l CertLoader) Option { return func(s *Service) { s.loadCert = l } }

// WithClock sustituye el reloj.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService construye el servicio con sus dependencias.
func NewService(client *SOAPClient, sig fiskal.Signer, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		builder:    NewRequestBuilder(),
		signer:     sig,
		client:     client,
		loadCert:   signer.LoadCertificate,
		now:        time.Now,
		newMessage: uuid.NewString,
		log:        log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fiscalize envía la factura a la CIS. Los errores de configuración se devuelven sin resultado y sin
// tocar la red; los de transporte y protocolo devuelven además un resultado en estado error.
func (s *Service) Fiscalize(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*entity.FiscalOutcome, error) {
	if inv == nil || company == nil {
		return nil, fmt.Errorf("%w: factura o emisor vacío", domain.ErrInvalidInput)
	}
	if !fiskal.IsElevenDigits(company.OIB) {
		return nil, fmt.Errorf("%w: OIB del emisor inválido %q", domain.ErrConfiguration, company.OIB)
	}
	if err := fiskal.ValidateOIB(company.OIB); err != nil {
		s.log.Warn().Str("oib", company.OIB).Err(err).Msg("fina: dígito de control del OIB del emisor no válido")
	}

	cert, err := s.loadCert(company.FinaCertPath, company.FinaCertPassword)
	if err != nil {
		if !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return nil, err
	}

	premise := orDefault(company.BusinessPremise, domainfiskal.DefaultBusinessPremise)
	device := orDefault(company.Device, domainfiskal.DefaultDevice)
	zki := domainfiskal.GenerateZKI(domainfiskal.ZKIParams{
		OIB:             company.OIB,
		IssuedAt:        inv.IssueDate,
		InvoiceNumber:   inv.Number,
		BusinessPremise: premise,
		Device:          device,
		Total:           inv.Total,
	})

	unsigned, err := s.builder.Build(&RequestContext{
		MessageID:       s.newMessage(),
		SentAt:          s.now(),
		OIB:             company.OIB,
		InVATSystem:     company.InVATSystem,
		IssuedAt:        inv.IssueDate,
		SequenceNumber:  domainfiskal.SequenceNumber(inv.Number),
		BusinessPremise: premise,
		Device:          device,
		Taxes:           TaxBuckets(inv),
		Total:           inv.Total,
		PaymentMethod:   inv.PaymentMethod,
		OperatorOIB:     company.EffectiveOperatorOIB(),
		BuyerOIB:        strings.TrimSpace(inv.BuyerOIB),
		ZKI:             zki,
	})
	if err != nil {
		return nil, err
	}
	signed, err := s.signer.Sign(unsigned, cert)
	if err != nil {
		return nil, err
	}
	envelope, err := Envelope(signed)
	if err != nil {
		return nil, err
	}

	endpoint := s.endpoint
	if endpoint == "" {
		endpoint = EndpointFor(company.Environment)
	}
	submittedAt := s.now()
	outcome := &entity.FiscalOutcome{
		Status:      entity.FiscalStatusError,
		Method:      entity.FiscalMethodFina,
		ZKI:         zki,
		SubmittedAt: &submittedAt,
	}

	resp, err := s.client.Send(ctx, endpoint, envelope)
	if err != nil {
		outcome.Message = err.Error()
		s.log.Error().Str("invoice_id", inv.ID).Err(err).Msg("fina: fallo de transporte")
		return outcome, err
	}
	outcome.RawResponse = string(resp.Body)

	result := InterpretResponse(resp.Body)
	switch result.Kind {
	case ResultFiscalized:
		outcome.Status = entity.FiscalStatusFiscalized
		outcome.JIR = result.JIR
		outcome.Message = "fiscalizada, JIR " + result.JIR
		return outcome, nil
	case ResultMalformed:
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			outcome.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, result.Message)
			return outcome, fmt.Errorf("%w: %s", domain.ErrTransport, outcome.Message)
		}
	}
	outcome.Message = result.Message
	return outcome, fmt.Errorf("%w: %s", domain.ErrProtocol, result.Message)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
