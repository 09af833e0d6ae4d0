package mojeracun

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/rs/zerolog"
)

// Service implementa la fiscalización vía MojeRačun: UBL → JSON → POST /apis/v2/send.
type Service struct {
	builder *UBLBuilderService
	client  *Client
	now     func() time.Time
	log     zerolog.Logger
}

// NewService construye el servicio.
func NewService(client *Client, log zerolog.Logger) *Service {
	return &Service{
		builder: NewUBLBuilderService(log),
		client:  client,
		now:     time.Now,
		log:     log,
	}
}

// WithClock sustituye el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Fiscalize construye y envía el UBL. Configuración y validación fallan sin resultado ni llamada
// de red; transporte y protocolo devuelven un resultado en estado error con la respuesta cruda.
func (s *Service) Fiscalize(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*entity.FiscalOutcome, error) {
	if inv == nil || company == nil {
		return nil, fmt.Errorf("%w: factura o emisor vacío", domain.ErrInvalidInput)
	}
	if err := checkCredentials(company); err != nil {
		return nil, err
	}

	ublXML, err := s.builder.Build(&UBLBuildContext{
		Invoice:    inv,
		Company:    company,
		Now:        s.now(),
		Production: company.IsProduction(),
	})
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	outcome := &entity.FiscalOutcome{
		Status:      entity.FiscalStatusError,
		Method:      entity.FiscalMethodMojeRacun,
		SubmittedAt: &submittedAt,
	}
	resp, raw, err := s.client.Send(ctx, company.Environment, CredentialsFor(company), ublXML)
	outcome.RawResponse = raw
	if err != nil {
		outcome.Message = err.Error()
		s.log.Error().Str("invoice_id", inv.ID).Err(err).Msg("mojeracun: envío fallido")
		return outcome, err
	}

	outcome.Status = entity.FiscalStatusFiscalized
	outcome.DocumentID = strconv.FormatInt(resp.ElectronicID, 10)
	outcome.RemoteStatus = strings.ToLower(strings.TrimSpace(resp.StatusName))
	outcome.Message = fmt.Sprintf("enviada a MojeRačun, ElectronicId %d", resp.ElectronicID)
	return outcome, nil
}

// QueryOutbox consulta la bandeja de salida con las credenciales del emisor.
func (s *Service) QueryOutbox(ctx context.Context, company *entity.Company, f entity.OutboxFilter) ([]entity.OutboxHeader, error) {
	if err := checkCredentials(company); err != nil {
		return nil, err
	}
	return s.client.QueryOutbox(ctx, company.Environment, CredentialsFor(company), f)
}

func checkCredentials(c *entity.Company) error {
	var missing []string
	if strings.TrimSpace(c.MojeRacunClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(c.MojeRacunSecret) == "" {
		missing = append(missing, "secret")
	}
	if strings.TrimSpace(c.MojeRacunSoftwareID) == "" {
		missing = append(missing, "software id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: faltan credenciales MojeRačun (%s)", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
