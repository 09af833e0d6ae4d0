package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa con su perfil fiscal.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Environment == "" {
		c.Environment = entity.EnvironmentTest
	}
	if c.Country == "" {
		c.Country = "HR"
	}
	query := `
		INSERT INTO companies (id, name, oib, address, city, postal_code, country, email, iban,
			in_vat_system, operator_oib, business_premise, device,
			fina_enabled, fina_cert_path, fina_cert_password,
			mojeracun_enabled, mojeracun_client_id, mojeracun_secret, mojeracun_software_id, mojeracun_company_bu,
			environment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.OIB, c.Address, c.City, c.PostalCode, c.Country, c.Email, c.IBAN,
		c.InVATSystem, c.OperatorOIB, c.BusinessPremise, c.Device,
		c.FinaEnabled, c.FinaCertPath, c.FinaCertPassword,
		c.MojeRacunEnabled, c.MojeRacunClientID, c.MojeRacunSecret, c.MojeRacunSoftwareID, c.MojeRacunCompanyBU,
		c.Environment, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la empresa %s ya existe", domain.ErrConflict, c.ID)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID; domain.ErrNotFound si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, oib, address, city, postal_code, country, email, iban,
			in_vat_system, operator_oib, business_premise, device,
			fina_enabled, fina_cert_path, fina_cert_password,
			mojeracun_enabled, mojeracun_client_id, mojeracun_secret, mojeracun_software_id, mojeracun_company_bu,
			environment, created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.OIB, &c.Address, &c.City, &c.PostalCode, &c.Country, &c.Email, &c.IBAN,
		&c.InVATSystem, &c.OperatorOIB, &c.BusinessPremise, &c.Device,
		&c.FinaEnabled, &c.FinaCertPath, &c.FinaCertPassword,
		&c.MojeRacunEnabled, &c.MojeRacunClientID, &c.MojeRacunSecret, &c.MojeRacunSoftwareID, &c.MojeRacunCompanyBU,
		&c.Environment, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
