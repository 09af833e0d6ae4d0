package mojeracun

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
)

const maxResponseBytes = 4 << 20

// APIError error de la API con la respuesta cruda para diagnóstico.
type APIError struct {
	Kind       error // domain.ErrTransport o domain.ErrProtocol
	StatusCode int
	Raw        string
	Detail     string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: mojeracun HTTP %d: %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%v: mojeracun: %s", e.Kind, e.Detail)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Client cliente REST de MojeRačun.
type Client struct {
	httpClient *http.Client
	baseURL    string // vacío = según entorno del emisor
}

// NewClient usa el cliente HTTP inyectado. baseURL vacío selecciona producción/demo por emisor.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) urlFor(environment, path string) string {
	base := c.baseURL
	if base == "" {
		base = BaseURLFor(environment)
	}
	return base + path
}

// Send envía el UBL como cadena dentro del JSON. Devuelve la respuesta cruda también en error.
func (c *Client) Send(ctx context.Context, environment string, creds Credentials, ublXML []byte) (*SendResponse, string, error) {
	payload, err := json.Marshal(sendRequest{
		Username:   creds.Username,
		Password:   creds.Password,
		CompanyID:  creds.CompanyID,
		CompanyBU:  creds.CompanyBU,
		SoftwareID: creds.SoftwareID,
		File:       string(ublXML),
	})
	if err != nil {
		return nil, "", fmt.Errorf("mojeracun: serializar petición: %w", err)
	}
	status, raw, err := c.post(ctx, c.urlFor(environment, sendPath), payload, "application/json")
	if err != nil {
		return nil, "", err
	}
	if status < 200 || status > 299 {
		return nil, raw, &APIError{Kind: domain.ErrTransport, StatusCode: status, Raw: raw, Detail: truncate(raw, 300)}
	}
	var resp SendResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, raw, &APIError{Kind: domain.ErrProtocol, Raw: raw, Detail: "respuesta JSON inválida: " + err.Error()}
	}
	if resp.ElectronicID == 0 {
		return nil, raw, &APIError{Kind: domain.ErrProtocol, Raw: raw, Detail: "respuesta sin ElectronicId"}
	}
	return &resp, raw, nil
}

// QueryOutbox consulta la bandeja de salida; la respuesta es XML con cero o más DocumentHeader.
func (c *Client) QueryOutbox(ctx context.Context, environment string, creds Credentials, f entity.OutboxFilter) ([]entity.OutboxHeader, error) {
	req := queryOutboxRequest{
		Username:      creds.Username,
		Password:      creds.Password,
		CompanyID:     creds.CompanyID,
		CompanyBU:     creds.CompanyBU,
		SoftwareID:    creds.SoftwareID,
		ElectronicID:  f.ElectronicID,
		StatusID:      f.StatusID,
		InvoiceYear:   f.InvoiceYear,
		InvoiceNumber: f.InvoiceNumber,
	}
	if f.From != nil {
		req.From = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		req.To = f.To.UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("mojeracun: serializar consulta: %w", err)
	}
	status, raw, err := c.post(ctx, c.urlFor(environment, queryOutboxPath), payload, "application/xml")
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Kind: domain.ErrTransport, StatusCode: status, Raw: raw, Detail: truncate(raw, 300)}
	}
	return ParseOutbox([]byte(raw))
}

// ParseOutbox interpreta la respuesta XML de queryOutbox.
func ParseOutbox(body []byte) ([]entity.OutboxHeader, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var resp outboxResponse
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = fiskal.CharsetReader
	if err := dec.Decode(&resp); err != nil {
		return nil, &APIError{Kind: domain.ErrProtocol, Raw: string(body), Detail: "respuesta XML inválida: " + err.Error()}
	}
	out := make([]entity.OutboxHeader, 0, len(resp.Headers))
	for _, h := range resp.Headers {
		out = append(out, h.toEntity())
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte, accept string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("%w: mojeracun: crear request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", fmt.Errorf("%w: error de red: timeout o cancelación: %v", domain.ErrTransport, ctx.Err())
		}
		return 0, "", fmt.Errorf("%w: error de red: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, "", fmt.Errorf("%w: mojeracun: leer respuesta: %v", domain.ErrTransport, err)
	}
	return resp.StatusCode, string(raw), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
