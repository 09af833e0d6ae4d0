package fina

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
)

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName      xml.Name `xml:"soapenv:Envelope"`
	XmlnsSoapenv string   `xml:"xmlns:soapenv,attr"`
	Body         soapBody `xml:"soapenv:Body"`
}

// soapBody lleva el documento firmado tal cual: re-serializarlo invalidaría la firma.
type soapBody struct {
	Content []byte `xml:",innerxml"`
}

// RawResponse respuesta HTTP sin interpretar.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// SOAPClient envía peticiones firmadas a la CIS.
type SOAPClient struct {
	httpClient *http.Client
}

// NewSOAPClient usa el cliente HTTP inyectado (timeout y modo TLS ya configurados).
func NewSOAPClient(httpClient *http.Client) *SOAPClient {
	return &SOAPClient{httpClient: httpClient}
}

// Envelope envuelve el documento firmado en un sobre SOAP 1.1 mínimo.
func Envelope(signedXML []byte) ([]byte, error) {
	env := soapEnvelope{
		XmlnsSoapenv: soapNS,
		Body:         soapBody{Content: stripXMLDeclaration(signedXML)},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return out, nil
}

// Send hace el POST del sobre. Un error aquí es siempre de transporte (timeout, DNS, TLS);
// el cuerpo se devuelve con cualquier código HTTP porque la CIS responde faults con 500.
func (c *SOAPClient) Send(ctx context.Context, endpoint string, envelope []byte) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("%w: soap: crear request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: error de red: timeout o cancelación: %v", domain.ErrTransport, ctx.Err())
		}
		return nil, fmt.Errorf("%w: error de red: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("%w: soap: leer respuesta: %v", domain.ErrTransport, err)
	}
	return &RawResponse{StatusCode: resp.StatusCode, Body: rawBody}, nil
}

func stripXMLDeclaration(b []byte) []byte {
	trimmed := bytes.TrimSpace(b)
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		if i := strings.Index(string(trimmed), "?>"); i >= 0 {
			return bytes.TrimSpace(trimmed[i+2:])
		}
	}
	return trimmed
}
