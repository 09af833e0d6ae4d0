package fina

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// EndpointProd servicio de fiscalización de producción (CIS).
	EndpointProd = "https://cis.porezna-uprava.hr:8449/FiskalizacijaService"
	// EndpointTest servicio de pruebas (CIS test).
	EndpointTest = "https://cistest.apis-it.hr:8449/FiskalizacijaServiceTest"

	// NamespaceF73 namespace de los tipos de la CIS.
	NamespaceF73 = "http://www.apis-it.hr/fin/2012/types/f73"
	soapNS       = "http://schemas.xmlsoap.org/soap/envelope/"

	// RequestElementID Id del elemento raíz; la Reference de la firma apunta a "#RacunZahtjev".
	RequestElementID = "RacunZahtjev"

	// SequenceMarkPremise OznSlijed: numeración secuencial a nivel de local.
	SequenceMarkPremise = "P"
)

// EndpointFor devuelve la URL de la CIS según el entorno del emisor.
func EndpointFor(environment string) string {
	if environment == "production" || environment == "prod" {
		return EndpointProd
	}
	return EndpointTest
}

// TaxBucket triple tipo/base/importe del bloque Pdv.
type TaxBucket struct {
	Rate   decimal.Decimal
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// RequestContext datos necesarios para construir un RacunZahtjev.
type RequestContext struct {
	MessageID       string    // IdPoruke: UUID nuevo en cada intento
	SentAt          time.Time // DatumVrijeme
	OIB             string
	InVATSystem     bool
	IssuedAt        time.Time
	SequenceNumber  string
	BusinessPremise string
	Device          string
	Taxes           []TaxBucket
	Total           decimal.Decimal
	PaymentMethod   string
	OperatorOIB     string
	BuyerOIB        string // se omite si no son exactamente 11 dígitos
	ZKI             string
}
