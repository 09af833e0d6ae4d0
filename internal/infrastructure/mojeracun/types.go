package mojeracun

import (
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

const (
	// BaseURLProduction servicio productivo de MojeRačun.
	BaseURLProduction = "https://www.moj-eracun.hr"
	// BaseURLDemo entorno de pruebas.
	BaseURLDemo = "https://demo.moj-eracun.hr"

	sendPath        = "/apis/v2/send"
	queryOutboxPath = "/apis/v2/queryOutbox"

	// Identificadores HR CIUS 2025.
	CustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:mfin.gov.hr:cius-2025:1.0#conformant#urn:mfin.gov.hr:ext-2025:1.0"
	ProfileID       = "P1"

	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	// OIBSchemeID esquema del identificador electrónico (OIB) en EndpointID.
	OIBSchemeID = "9934"
)

// Comprador de pruebas sustituido fuera de producción cuando la factura no trae OIB válido.
const (
	TestBuyerOIB  = "99999999994"
	TestBuyerName = "TEST KUPAC d.o.o."
)

// Valores de relleno para la dirección del comprador cuando el registro no la trae.
const (
	placeholderStreet     = "Nepoznata adresa"
	placeholderCity       = "Zagreb"
	placeholderPostalCode = "10000"
	placeholderCountry    = "HR"
)

// BaseURLFor devuelve la URL base según el entorno del emisor.
func BaseURLFor(environment string) string {
	if environment == entity.EnvironmentProduction {
		return BaseURLProduction
	}
	return BaseURLDemo
}

// Credentials credenciales REST del emisor.
type Credentials struct {
	Username   string
	Password   string
	CompanyID  string // OIB
	CompanyBU  string
	SoftwareID string
}

// CredentialsFor extrae las credenciales del perfil del emisor.
func CredentialsFor(c *entity.Company) Credentials {
	return Credentials{
		Username:   c.MojeRacunClientID,
		Password:   c.MojeRacunSecret,
		CompanyID:  c.OIB,
		CompanyBU:  c.MojeRacunCompanyBU,
		SoftwareID: c.MojeRacunSoftwareID,
	}
}

// sendRequest cuerpo JSON del envío; File lleva el UBL como cadena.
type sendRequest struct {
	Username   string `json:"Username"`
	Password   string `json:"Password"`
	CompanyID  string `json:"CompanyId"`
	CompanyBU  string `json:"CompanyBu"`
	SoftwareID string `json:"SoftwareId"`
	File       string `json:"File"`
}

// SendResponse respuesta JSON de /apis/v2/send.
type SendResponse struct {
	ElectronicID            int64  `json:"ElectronicId"`
	DocumentNr              string `json:"DocumentNr"`
	DocumentTypeID          int    `json:"DocumentTypeId"`
	DocumentTypeName        string `json:"DocumentTypeName"`
	StatusID                int    `json:"StatusId"`
	StatusName              string `json:"StatusName"`
	RecipientBusinessNumber string `json:"RecipientBusinessNumber"`
	RecipientBusinessName   string `json:"RecipientBusinessName"`
	Created                 string `json:"Created"`
	Sent                    string `json:"Sent"`
}

// queryOutboxRequest cuerpo JSON de /apis/v2/queryOutbox.
type queryOutboxRequest struct {
	Username      string `json:"Username"`
	Password      string `json:"Password"`
	CompanyID     string `json:"CompanyId"`
	CompanyBU     string `json:"CompanyBu"`
	SoftwareID    string `json:"SoftwareId"`
	ElectronicID  *int64 `json:"ElectronicId,omitempty"`
	StatusID      *int   `json:"StatusId,omitempty"`
	InvoiceYear   *int   `json:"InvoiceYear,omitempty"`
	InvoiceNumber string `json:"InvoiceNumber,omitempty"`
	From          string `json:"From,omitempty"`
	To            string `json:"To,omitempty"`
}

// outboxResponse respuesta XML de la consulta de bandeja de salida.
type outboxResponse struct {
	Headers []outboxHeaderXML `xml:"DocumentHeader"`
}

type outboxHeaderXML struct {
	ElectronicID            int64  `xml:"ElectronicId"`
	DocumentNr              string `xml:"DocumentNr"`
	DocumentTypeID          int    `xml:"DocumentTypeId"`
	DocumentTypeName        string `xml:"DocumentTypeName"`
	StatusID                int    `xml:"StatusId"`
	StatusName              string `xml:"StatusName"`
	RecipientBusinessNumber string `xml:"RecipientBusinessNumber"`
	RecipientBusinessName   string `xml:"RecipientBusinessName"`
	Created                 string `xml:"Created"`
	Updated                 string `xml:"Updated"`
	Sent                    string `xml:"Sent"`
	Delivered               string `xml:"Delivered"`
}

var remoteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

func parseRemoteTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range remoteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (h outboxHeaderXML) toEntity() entity.OutboxHeader {
	return entity.OutboxHeader{
		ElectronicID:     h.ElectronicID,
		DocumentNr:       h.DocumentNr,
		DocumentTypeID:   h.DocumentTypeID,
		DocumentTypeName: h.DocumentTypeName,
		StatusID:         h.StatusID,
		StatusName:       h.StatusName,
		RecipientOIB:     h.RecipientBusinessNumber,
		RecipientName:    h.RecipientBusinessName,
		Created:          parseRemoteTime(h.Created),
		Updated:          parseRemoteTime(h.Updated),
		Sent:             parseRemoteTime(h.Sent),
		Delivered:        parseRemoteTime(h.Delivered),
	}
}
