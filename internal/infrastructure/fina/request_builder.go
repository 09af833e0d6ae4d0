package fina

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	domainfiskal "github.com/jhoicas/Fiskalizacija-api/internal/domain/fiskal"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/shopspring/decimal"
)

// RequestBuilder construye el XML RacunZahtjev (sin firma).
type RequestBuilder struct{}

// NewRequestBuilder crea el builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

// Build genera el documento. La raíz lleva Id="RacunZahtjev" para la Reference de la firma.
func (b *RequestBuilder) Build(rc *RequestContext) ([]byte, error) {
	if rc == nil {
		return nil, fmt.Errorf("fina: contexto de petición vacío")
	}
	if rc.MessageID == "" || rc.ZKI == "" {
		return nil, fmt.Errorf("fina: IdPoruke y ZastKod son obligatorios")
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{
		Name: xml.Name{Local: "tns:RacunZahtjev"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:tns"}, Value: NamespaceF73},
			{Name: xml.Name{Local: "Id"}, Value: RequestElementID},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	start(enc, "Zaglavlje")
	writeTns(enc, "IdPoruke", rc.MessageID)
	writeTns(enc, "DatumVrijeme", rc.SentAt.Format(domainfiskal.ZKIDateTimeLayout))
	end(enc, "Zaglavlje")

	start(enc, "Racun")
	writeTns(enc, "Oib", rc.OIB)
	writeTns(enc, "USustPdv", strconv.FormatBool(rc.InVATSystem))
	writeTns(enc, "DatVrijeme", rc.IssuedAt.Format(domainfiskal.ZKIDateTimeLayout))
	writeTns(enc, "OznSlijed", SequenceMarkPremise)

	start(enc, "BrRac")
	writeTns(enc, "BrOznRac", rc.SequenceNumber)
	writeTns(enc, "OznPosPr", rc.BusinessPremise)
	writeTns(enc, "OznNapUr", rc.Device)
	end(enc, "BrRac")

	if len(rc.Taxes) > 0 {
		start(enc, "Pdv")
		for _, t := range rc.Taxes {
			start(enc, "Porez")
			writeTns(enc, "Stopa", fiskal.FormatAmount(t.Rate))
			writeTns(enc, "Osnovica", fiskal.FormatAmount(t.Base))
			writeTns(enc, "Iznos", fiskal.FormatAmount(t.Amount))
			end(enc, "Porez")
		}
		end(enc, "Pdv")
	}

	writeTns(enc, "IznosUkupno", fiskal.FormatAmount(rc.Total))
	writeTns(enc, "NacinPlac", fiskal.PaymentMethodOrDefault(rc.PaymentMethod))
	writeTns(enc, "OibOper", rc.OperatorOIB)
	if fiskal.IsElevenDigits(rc.BuyerOIB) {
		writeTns(enc, "OibPrimateljaRacuna", rc.BuyerOIB)
	}
	writeTns(enc, "ZastKod", rc.ZKI)
	writeTns(enc, "NakDost", "false")
	end(enc, "Racun")

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("fina: serializar RacunZahtjev: %w", err)
	}
	return buf.Bytes(), nil
}

// TaxBuckets agrupa el impuesto por tipo. Con un solo tipo (o sin líneas) devuelve un único
// triple con los totales de la factura; con varios, un triple por tipo ordenado de mayor a menor.
func TaxBuckets(inv *entity.Invoice) []TaxBucket {
	byRate := map[string]*TaxBucket{}
	for _, it := range inv.Items {
		key := it.TaxRate.Round(2).String()
		bucket, ok := byRate[key]
		if !ok {
			bucket = &TaxBucket{Rate: it.TaxRate}
			byRate[key] = bucket
		}
		bucket.Base = bucket.Base.Add(it.Amount)
	}
	if len(byRate) <= 1 {
		rate := inv.TaxRate
		for _, b := range byRate {
			if rate.IsZero() {
				rate = b.Rate
			}
		}
		return []TaxBucket{{Rate: rate, Base: inv.Subtotal, Amount: inv.TaxAmount}}
	}

	hundred := decimal.NewFromInt(100)
	out := make([]TaxBucket, 0, len(byRate))
	for _, b := range byRate {
		b.Base = b.Base.Round(2)
		b.Amount = b.Base.Mul(b.Rate).Div(hundred).Round(2)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.GreaterThan(out[j].Rate) })
	return out
}

func start(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "tns:" + local}})
}

func end(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "tns:" + local}})
}

func writeTns(enc *xml.Encoder, local, value string) {
	start(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, local)
}
