package fina_test

import (
	"testing"

	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/fina"
	"github.com/stretchr/testify/assert"
)

const jirResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<tns:RacunOdgovor xmlns:tns="http://www.apis-it.hr/fin/2012/types/f73" Id="RacunOdgovor">
<tns:Zaglavlje><tns:IdPoruke>2f0a6c4e</tns:IdPoruke><tns:DatumVrijeme>15.03.2025T10:31:16</tns:DatumVrijeme></tns:Zaglavlje>
<tns:Jir>a1b2c3d4-0000-4000-8000-123456789abc</tns:Jir>
</tns:RacunOdgovor></soap:Body></soap:Envelope>`

const faultResponse = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<soap:Fault><faultcode>soap:Client</faultcode><faultstring>Neispravan potpis</faultstring></soap:Fault>
</soap:Body></soap:Envelope>`

const greskeResponse = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<tns:RacunOdgovor xmlns:tns="http://www.apis-it.hr/fin/2012/types/f73">
<tns:Greske><tns:Greska><tns:SifraGreske>s004</tns:SifraGreske><tns:PorukaGreske>Neispravan digitalni potpis.</tns:PorukaGreske></tns:Greska>
<tns:Greska><tns:SifraGreske>s005</tns:SifraGreske><tns:PorukaGreske>Druga greška</tns:PorukaGreske></tns:Greska></tns:Greske>
</tns:RacunOdgovor></soap:Body></soap:Envelope>`

func TestInterpretResponse_Jir(t *testing.T) {
	r := fina.InterpretResponse([]byte(jirResponse))
	assert.True(t, r.Accepted())
	assert.Equal(t, "a1b2c3d4-0000-4000-8000-123456789abc", r.JIR)
}

func TestInterpretResponse_Fault(t *testing.T) {
	r := fina.InterpretResponse([]byte(faultResponse))
	assert.Equal(t, fina.ResultFault, r.Kind)
	assert.Equal(t, "Neispravan potpis", r.Message)
	assert.Equal(t, "soap:Client", r.ErrorCode)
}

func TestInterpretResponse_PrimerErrorCIS(t *testing.T) {
	r := fina.InterpretResponse([]byte(greskeResponse))
	assert.Equal(t, fina.ResultCISError, r.Kind)
	assert.Equal(t, "s004", r.ErrorCode)
	assert.Equal(t, "s004: Neispravan digitalni potpis.", r.Message)
}

func TestInterpretResponse_JirVacio(t *testing.T) {
	body := `<Envelope><Body><RacunOdgovor><Jir>  </Jir></RacunOdgovor></Body></Envelope>`
	r := fina.InterpretResponse([]byte(body))
	assert.Equal(t, fina.ResultNoReceipt, r.Kind)
	assert.False(t, r.Accepted())
}

func TestInterpretResponse_Malformado(t *testing.T) {
	r := fina.InterpretResponse([]byte(`<html><body>Bad Gateway`))
	assert.Equal(t, fina.ResultMalformed, r.Kind)

	r = fina.InterpretResponse(nil)
	assert.Equal(t, fina.ResultMalformed, r.Kind)
}

func TestInterpretResponse_ISO88592(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?><Envelope><Body><Greske><Greska>" +
		"<SifraGreske>s006</SifraGreske><PorukaGreske>Gre\xb9ka sustava</PorukaGreske></Greska></Greske></Body></Envelope>"
	r := fina.InterpretResponse([]byte(body))
	assert.Equal(t, "s006: Greška sustava", r.Message)
}
