package fiskal_test

import (
	"testing"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/fiskal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ──────────────────────────────────────────────────────────────────────────────
// Vectores calculados con md5sum sobre la cadena de concatenación:
//
//	OIB + dd.MM.yyyyTHH:mm:ss + secuencial + local + dispositivo + total(2 decimales)
//
// Si alguien cambia el orden, el formato de fecha o el de importes, estos tests fallan.
// ──────────────────────────────────────────────────────────────────────────────

const testOIB = "12345678903"

var testIssuedAt = time.Date(2025, 3, 15, 10, 30, 15, 0, time.UTC)

func TestGenerateZKI_VectorExacto(t *testing.T) {
	cases := []struct {
		name     string
		params   fiskal.ZKIParams
		expected string
	}{
		{
			name: "separador barra",
			params: fiskal.ZKIParams{
				OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "15/POS1/1",
				BusinessPremise: "1", Device: "1", Total: decimal.NewFromInt(125),
			},
			expected: "0ad19706abb9742d2c21b5dacb85c87e",
		},
		{
			name: "separador guion",
			params: fiskal.ZKIParams{
				OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "42-2025",
				BusinessPremise: "POS1", Device: "R2", Total: decimal.RequireFromString("0.5"),
			},
			expected: "8697dfd17e0888bed6e8adaf34f70348",
		},
		{
			name: "sin separador y parámetros por defecto",
			params: fiskal.ZKIParams{
				OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "7",
				Total: decimal.RequireFromString("99.999"),
			},
			expected: "940b2d750734e3fb80078c2bde8029f7",
		},
		{
			name: "número vacío",
			params: fiskal.ZKIParams{
				OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "",
				Total: decimal.NewFromInt(100),
			},
			expected: "181832aead29ac1c45249d0971f59fd2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fiskal.GenerateZKI(tc.params)
			assert.Equal(t, tc.expected, got, "el ZKI debe coincidir con el vector calculado")
			assert.Equal(t, got, fiskal.GenerateZKI(tc.params), "el ZKI debe ser determinista")
		})
	}
}

func TestGenerateZKI_FormatoHex(t *testing.T) {
	zki := fiskal.GenerateZKI(fiskal.ZKIParams{OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "1/1/1"})
	assert.Regexp(t, `^[0-9a-f]{32}$`, zki)
}

func TestGenerateZKI_CambiaConCadaCampo(t *testing.T) {
	base := fiskal.ZKIParams{
		OIB: testOIB, IssuedAt: testIssuedAt, InvoiceNumber: "15/1/1",
		BusinessPremise: "01", Device: "1", Total: decimal.NewFromInt(10),
	}
	ref := fiskal.GenerateZKI(base)

	variants := []func(p *fiskal.ZKIParams){
		func(p *fiskal.ZKIParams) { p.OIB = "98765432106" },
		func(p *fiskal.ZKIParams) { p.IssuedAt = p.IssuedAt.Add(time.Second) },
		func(p *fiskal.ZKIParams) { p.InvoiceNumber = "16/1/1" },
		func(p *fiskal.ZKIParams) { p.BusinessPremise = "02" },
		func(p *fiskal.ZKIParams) { p.Device = "2" },
		func(p *fiskal.ZKIParams) { p.Total = decimal.RequireFromString("10.01") },
	}
	for i, mutate := range variants {
		p := base
		mutate(&p)
		assert.NotEqual(t, ref, fiskal.GenerateZKI(p), "variante %d debe producir otro ZKI", i)
	}
}

func TestSequenceNumber(t *testing.T) {
	cases := map[string]string{
		"15/POS1/1": "15",
		"42-2025":   "42",
		"7":         "7",
		"":          "",
		"3-1/2":     "3",
		"/1":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, fiskal.SequenceNumber(in), "número %q", in)
	}
}
