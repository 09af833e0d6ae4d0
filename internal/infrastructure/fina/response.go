package fina

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
)

// Resultados posibles de la interpretación.
const (
	ResultFiscalized = "fiscalized"
	ResultFault      = "fault"
	ResultCISError   = "cis_error"
	ResultNoReceipt  = "no_receipt"
	ResultMalformed  = "malformed"
)

// ResponseResult respuesta de la CIS interpretada.
type ResponseResult struct {
	Kind      string
	JIR       string
	ErrorCode string
	Message   string
}

// Accepted indica si la CIS devolvió un JIR.
func (r ResponseResult) Accepted() bool { return r.Kind == ResultFiscalized }

// InterpretResponse revisa en orden: fault SOAP, lista Greske de la CIS, Jir no vacío.
// Un XML malformado se reporta como resultado, nunca como pánico.
func InterpretResponse(body []byte) ResponseResult {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = fiskal.CharsetReader
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return ResponseResult{
			Kind:    ResultMalformed,
			Message: fmt.Sprintf("respuesta XML malformada: %s", truncate(string(body), 500)),
		}
	}

	if fault := doc.FindElement("//Fault"); fault != nil {
		code := childText(fault, "faultcode")
		msg := childText(fault, "faultstring")
		if msg == "" {
			msg = "SOAP fault sin faultstring"
		}
		return ResponseResult{Kind: ResultFault, ErrorCode: code, Message: msg}
	}

	if greska := doc.FindElement("//Greske/Greska"); greska != nil {
		code := childText(greska, "SifraGreske")
		msg := childText(greska, "PorukaGreske")
		return ResponseResult{
			Kind:      ResultCISError,
			ErrorCode: code,
			Message:   strings.TrimSpace(code + ": " + msg),
		}
	}

	if jir := doc.FindElement("//Jir"); jir != nil {
		if v := strings.TrimSpace(jir.Text()); v != "" {
			return ResponseResult{Kind: ResultFiscalized, JIR: v}
		}
	}
	return ResponseResult{Kind: ResultNoReceipt, Message: "no se recibió JIR"}
}

func childText(el *etree.Element, tag string) string {
	if c := el.FindElement(".//" + tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
