// Package fiskal: código de seguridad (ZKI), clasificación KPD y conciliación de importes.
// Funciones puras, sin I/O.
package fiskal

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	pkgfiskal "github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/shopspring/decimal"
)

// ZKIDateTimeLayout formato dd.MM.yyyyTHH:mm:ss usado en la concatenación y en el XML CIS.
const ZKIDateTimeLayout = "02.01.2006T15:04:05"

const (
	DefaultBusinessPremise = "01"
	DefaultDevice          = "1"
)

// ZKIParams contiene los seis campos del código de seguridad, en el orden de concatenación.
type ZKIParams struct {
	OIB             string
	IssuedAt        time.Time
	InvoiceNumber   string // número completo; se extrae el secuencial
	BusinessPremise string // vacío = "01"
	Device          string // vacío = "1"
	Total           decimal.Decimal
}

// GenerateZKI calcula el ZKI: MD5 en hexadecimal minúscula de
// OIB + fecha + secuencial + local + dispositivo + total.
func GenerateZKI(p ZKIParams) string {
	premise := p.BusinessPremise
	if premise == "" {
		premise = DefaultBusinessPremise
	}
	device := p.Device
	if device == "" {
		device = DefaultDevice
	}
	var sb strings.Builder
	sb.WriteString(p.OIB)
	sb.WriteString(p.IssuedAt.Format(ZKIDateTimeLayout))
	sb.WriteString(SequenceNumber(p.InvoiceNumber))
	sb.WriteString(premise)
	sb.WriteString(device)
	sb.WriteString(pkgfiskal.FormatAmount(p.Total))

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// SequenceNumber extrae el secuencial (primer segmento antes de '/' o '-').
// Sin separador devuelve el número completo.
func SequenceNumber(invoiceNumber string) string {
	if i := strings.IndexAny(invoiceNumber, "/-"); i >= 0 {
		return invoiceNumber[:i]
	}
	return invoiceNumber
}
