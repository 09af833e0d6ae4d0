package mojeracun

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	domainfiskal "github.com/jhoicas/Fiskalizacija-api/internal/domain/fiskal"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UBLBuildContext datos de entrada del builder.
type UBLBuildContext struct {
	Invoice    *entity.Invoice
	Company    *entity.Company
	Now        time.Time
	Production bool
}

// UBLBuilderService construye el XML UBL 2.1 (HR CIUS 2025) de la factura. No hay firma:
// la autenticación del transporte sustituye a la firma del documento.
type UBLBuilderService struct {
	log zerolog.Logger
}

// NewUBLBuilderService crea el servicio.
func NewUBLBuilderService(log zerolog.Logger) *UBLBuilderService {
	return &UBLBuilderService{log: log}
}

type party struct {
	oib        string
	name       string
	street     string
	city       string
	postalCode string
	country    string
	contactID  string
	email      string
}

// Build genera el documento Invoice. En producción, un comprador sin OIB válido es
// domain.ErrValidation y no se genera nada.
func (s *UBLBuilderService) Build(ctx *UBLBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Company == nil {
		return nil, fmt.Errorf("mojeracun: faltan invoice o company en el contexto")
	}
	inv, company := ctx.Invoice, ctx.Company
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	buyer, err := s.resolveBuyer(inv, ctx.Production)
	if err != nil {
		return nil, err
	}

	issue := inv.IssueDate
	if issue.After(now) {
		issue = now
	}
	// El vencimiento se compara por día natural en la zona de la emisión.
	due := issue.AddDate(0, 0, 30)
	if inv.DueDate != nil {
		if d := inv.DueDate.In(issue.Location()); !calendarDay(d).Before(calendarDay(issue)) {
			due = d
		}
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
		},
	}
	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	writeCbc(enc, "CustomizationID", CustomizationID)
	writeCbc(enc, "ProfileID", ProfileID)
	writeCbc(enc, "ID", inv.Number)
	writeCbc(enc, "CopyIndicator", "false")
	writeCbc(enc, "IssueDate", issue.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", issue.Format("15:04:05"))
	writeCbc(enc, "DueDate", due.Format("2006-01-02"))
	writeCbc(enc, "InvoiceTypeCode", fiskal.InvoiceTypeCommercial)
	writeCbc(enc, "DocumentCurrencyCode", fiskal.CurrencyEUR)

	supplier := party{
		oib:        company.OIB,
		name:       company.Name,
		street:     company.Address,
		city:       company.City,
		postalCode: company.PostalCode,
		country:    orDefault(company.Country, placeholderCountry),
		contactID:  company.EffectiveOperatorOIB(),
		email:      company.Email,
	}
	openCac(enc, "AccountingSupplierParty")
	writeParty(enc, supplier)
	closeCac(enc, "AccountingSupplierParty")

	openCac(enc, "AccountingCustomerParty")
	writeParty(enc, buyer)
	closeCac(enc, "AccountingCustomerParty")

	openCac(enc, "PaymentMeans")
	writeCbc(enc, "PaymentMeansCode", fiskal.PaymentMeansTransfer)
	if company.IBAN != "" {
		openCac(enc, "PayeeFinancialAccount")
		writeCbc(enc, "ID", strings.ReplaceAll(company.IBAN, " ", ""))
		closeCac(enc, "PayeeFinancialAccount")
	}
	closeCac(enc, "PaymentMeans")

	rate := AggregateTaxRate(inv)
	category := domainfiskal.TaxCategoryForRate(rate)
	openCac(enc, "TaxTotal")
	writeAmount(enc, "TaxAmount", inv.TaxAmount)
	openCac(enc, "TaxSubtotal")
	writeAmount(enc, "TaxableAmount", inv.Subtotal)
	writeAmount(enc, "TaxAmount", inv.TaxAmount)
	writeTaxCategory(enc, "TaxCategory", category, rate)
	closeCac(enc, "TaxSubtotal")
	closeCac(enc, "TaxTotal")

	openCac(enc, "LegalMonetaryTotal")
	writeAmount(enc, "LineExtensionAmount", inv.Subtotal)
	writeAmount(enc, "TaxExclusiveAmount", inv.Subtotal)
	writeAmount(enc, "TaxInclusiveAmount", inv.Total)
	writeAmount(enc, "AllowanceTotalAmount", decimal.Zero)
	writeAmount(enc, "ChargeTotalAmount", decimal.Zero)
	writeAmount(enc, "PayableAmount", inv.Total)
	closeCac(enc, "LegalMonetaryTotal")

	for i, it := range inv.Items {
		s.writeLine(enc, i+1, it, rate)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("mojeracun: serializar UBL: %w", err)
	}
	return buf.Bytes(), nil
}

// resolveBuyer aplica la regla del comprador: OIB de 11 dígitos obligatorio en producción;
// fuera de producción se sustituye por el comprador de pruebas.
func (s *UBLBuilderService) resolveBuyer(inv *entity.Invoice, production bool) (party, error) {
	p := party{
		oib:        strings.TrimSpace(inv.BuyerOIB),
		name:       inv.BuyerName,
		street:     orDefault(inv.BuyerAddress, placeholderStreet),
		city:       orDefault(inv.BuyerCity, placeholderCity),
		postalCode: orDefault(inv.BuyerPostalCode, placeholderPostalCode),
		country:    orDefault(inv.BuyerCountry, placeholderCountry),
	}
	if !fiskal.IsElevenDigits(p.oib) {
		if production {
			return party{}, fmt.Errorf("%w: la factura %s no tiene un OIB de comprador válido (11 dígitos); "+
				"corrija los datos del comprador antes de enviarla", domain.ErrValidation, inv.Number)
		}
		s.log.Warn().
			Str("invoice_id", inv.ID).
			Str("invoice_number", inv.Number).
			Str("buyer_oib", inv.BuyerOIB).
			Msg("mojeracun: comprador sin OIB válido, se usa el comprador de pruebas")
		p.oib = TestBuyerOIB
		p.name = TestBuyerName
	}
	if p.name == "" {
		p.name = p.oib
	}
	p.contactID = p.oib
	return p, nil
}

func (s *UBLBuilderService) writeLine(enc *xml.Encoder, n int, it entity.InvoiceItem, fallbackRate decimal.Decimal) {
	rate := it.TaxRate
	if rate.IsZero() && it.TaxCategory == "" {
		rate = fallbackRate
	}
	category := it.TaxCategory
	if category == "" {
		category = domainfiskal.TaxCategoryForRate(rate)
	}
	kpd := strings.TrimSpace(it.KPDCode)
	if kpd == "" {
		kpd = domainfiskal.ResolveClassification(it.Description).Code
	}
	unit := fiskal.UnitCode(it.Unit)

	openCac(enc, "InvoiceLine")
	writeCbc(enc, "ID", strconv.Itoa(n))
	writeCbcAttr(enc, "InvoicedQuantity", fiskal.FormatQuantity(it.Quantity), "unitCode", unit)
	writeAmount(enc, "LineExtensionAmount", it.Amount)

	openCac(enc, "Item")
	writeCbc(enc, "Name", it.Description)
	openCac(enc, "CommodityClassification")
	writeCbcAttr(enc, "ItemClassificationCode", kpd, "listID", "CG")
	closeCac(enc, "CommodityClassification")
	writeTaxCategory(enc, "ClassifiedTaxCategory", category, rate)
	closeCac(enc, "Item")

	openCac(enc, "Price")
	writeAmount(enc, "PriceAmount", it.UnitPrice)
	writeCbcAttr(enc, "BaseQuantity", "1", "unitCode", unit)
	closeCac(enc, "Price")
	closeCac(enc, "InvoiceLine")
}

// AggregateTaxRate tipo del bloque TaxTotal: el de las líneas; si no hay, el de la factura;
// si tampoco, el cociente impuesto/subtotal redondeado a entero (25 con subtotal cero).
func AggregateTaxRate(inv *entity.Invoice) decimal.Decimal {
	for _, it := range inv.Items {
		if !it.TaxRate.IsZero() || it.TaxCategory != "" {
			return it.TaxRate
		}
	}
	if !inv.TaxRate.IsZero() {
		return inv.TaxRate
	}
	if inv.Subtotal.IsZero() {
		return domainfiskal.DefaultTaxRate
	}
	return inv.TaxAmount.Div(inv.Subtotal).Mul(decimal.NewFromInt(100)).Round(0)
}

func writeParty(enc *xml.Encoder, p party) {
	openCac(enc, "Party")
	writeCbcAttr(enc, "EndpointID", p.oib, "schemeID", OIBSchemeID)
	openCac(enc, "PartyIdentification")
	writeCbc(enc, "ID", p.oib)
	closeCac(enc, "PartyIdentification")
	openCac(enc, "PartyName")
	writeCbc(enc, "Name", p.name)
	closeCac(enc, "PartyName")

	openCac(enc, "PostalAddress")
	writeCbc(enc, "StreetName", p.street)
	writeCbc(enc, "CityName", p.city)
	writeCbc(enc, "PostalZone", p.postalCode)
	openCac(enc, "Country")
	writeCbc(enc, "IdentificationCode", p.country)
	closeCac(enc, "Country")
	closeCac(enc, "PostalAddress")

	openCac(enc, "PartyTaxScheme")
	writeCbc(enc, "CompanyID", "HR"+p.oib)
	openCac(enc, "TaxScheme")
	writeCbc(enc, "ID", fiskal.TaxSchemeVAT)
	closeCac(enc, "TaxScheme")
	closeCac(enc, "PartyTaxScheme")

	openCac(enc, "PartyLegalEntity")
	writeCbc(enc, "RegistrationName", p.name)
	writeCbc(enc, "CompanyID", p.oib)
	closeCac(enc, "PartyLegalEntity")

	openCac(enc, "Contact")
	writeCbc(enc, "ID", p.contactID)
	if p.email != "" {
		writeCbc(enc, "ElectronicMail", p.email)
	}
	closeCac(enc, "Contact")
	closeCac(enc, "Party")
}

func writeTaxCategory(enc *xml.Encoder, local, category string, rate decimal.Decimal) {
	openCac(enc, local)
	writeCbc(enc, "ID", category)
	writeCbc(enc, "Percent", fiskal.FormatRate(rate))
	openCac(enc, "TaxScheme")
	writeCbc(enc, "ID", fiskal.TaxSchemeVAT)
	closeCac(enc, "TaxScheme")
	closeCac(enc, local)
}

func openCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "cac:" + local}})
}

func closeCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "cac:" + local}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "cbc:" + local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "cbc:" + local}})
}

func writeCbcAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "cbc:" + local},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "cbc:" + local}})
}

func writeAmount(enc *xml.Encoder, local string, value decimal.Decimal) {
	writeCbcAttr(enc, local, fiskal.FormatAmount(value), "currencyID", fiskal.CurrencyEUR)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
