package entity

import "time"

// Entornos del emisor para MojeRačun y FINA.
const (
	EnvironmentProduction = "production"
	EnvironmentTest       = "test"
)

// Company representa al emisor (perfil fiscal de la empresa) con sus credenciales por protocolo.
type Company struct {
	ID         string
	Name       string
	OIB        string // OIB croata (11 dígitos)
	Address    string
	City       string
	PostalCode string
	Country    string // ISO 3166-1 alpha-2; vacío = HR
	Email      string
	IBAN       string

	InVATSystem     bool
	OperatorOIB     string // OIB del operador que emite (OibOper); vacío = OIB de la empresa
	BusinessPremise string // oznaka poslovnog prostora; vacío = "01"
	Device          string // oznaka naplatnog uređaja; vacío = "1"

	// FINA (CIS): certificado .p12/.pfx o PEM.
	FinaEnabled      bool
	FinaCertPath     string
	FinaCertPassword string

	// MojeRačun: credenciales REST.
	MojeRacunEnabled    bool
	MojeRacunClientID   string
	MojeRacunSecret     string
	MojeRacunSoftwareID string
	MojeRacunCompanyBU  string
	Environment         string // production | test

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsProduction indica si el emisor opera contra los entornos productivos.
func (c *Company) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// EffectiveOperatorOIB devuelve el OIB del operador o, si no está configurado, el de la empresa.
func (c *Company) EffectiveOperatorOIB() string {
	if c.OperatorOIB != "" {
		return c.OperatorOIB
	}
	return c.OIB
}
