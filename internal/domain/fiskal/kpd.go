package fiskal

import (
	"strings"
	"unicode"

	pkgfiskal "github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/shopspring/decimal"
)

// Clasificación por defecto cuando ninguna palabra clave coincide.
const DefaultKPDCode = "68.32.11"

var (
	DefaultTaxRate = decimal.NewFromInt(25)
	reducedRate    = decimal.NewFromInt(13)
)

// Classification resultado de resolver una descripción de línea.
type Classification struct {
	Code    string
	TaxRate decimal.Decimal
	Keyword string // vacío si se aplicó el valor por defecto
}

// KPDKeyword entrada de la tabla palabra clave -> clasificación.
type KPDKeyword struct {
	Keyword string
	Code    string
	TaxRate decimal.Decimal
}

// Las palabras clave son raíces: cada palabra de la clave debe iniciar una palabra consecutiva de
// la descripción, de modo que "grijanj" cubre grijanje, grijanja y grijanju.
// El orden importa: las más específicas van antes que las genéricas
// ("topl vod" antes que "vod", "odvoz otpad" antes que "otpad").
var kpdKeywords = []KPDKeyword{
	// Toplinska energija / topla voda
	{"topl vod", "35.30.12", reducedRate},
	{"hot water", "35.30.12", reducedRate},
	{"toplinsk energij", "35.30.11", reducedRate},
	{"grijanj", "35.30.11", reducedRate},
	{"heating", "35.30.11", reducedRate},
	// Električna energija
	{"električn energij", "35.14.10", reducedRate},
	{"struj", "35.14.10", reducedRate},
	{"electricity", "35.14.10", reducedRate},
	// Plin
	{"plin", "35.23.10", reducedRate},
	{"gas", "35.23.10", reducedRate},
	// Voda
	{"vodoopskrb", "36.00.20", reducedRate},
	{"vod", "36.00.20", reducedRate},
	{"water", "36.00.20", reducedRate},
	// Otpad
	{"odvoz otpad", "38.11.21", DefaultTaxRate},
	{"otpad", "38.11.21", DefaultTaxRate},
	{"smeć", "38.11.21", DefaultTaxRate},
	{"waste", "38.11.21", DefaultTaxRate},
	// Održavanje / usluge
	{"održavanj", "81.10.10", DefaultTaxRate},
	{"maintenance", "81.10.10", DefaultTaxRate},
	{"čišćenj", "81.21.10", DefaultTaxRate},
	{"uslug", DefaultKPDCode, DefaultTaxRate},
	{"service", DefaultKPDCode, DefaultTaxRate},
}

// KPDKeywords devuelve una copia de la tabla en orden de evaluación.
func KPDKeywords() []KPDKeyword {
	return append([]KPDKeyword(nil), kpdKeywords...)
}

// ResolveClassification asigna código KPD y tipo por defecto a una descripción en texto libre.
// La comparación no distingue mayúsculas; gana la primera palabra clave de la tabla que aparezca.
func ResolveClassification(description string) Classification {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, k := range kpdKeywords {
		if matchesStems(words, strings.Fields(k.Keyword)) {
			return Classification{Code: k.Code, TaxRate: k.TaxRate, Keyword: k.Keyword}
		}
	}
	return Classification{Code: DefaultKPDCode, TaxRate: DefaultTaxRate}
}

func matchesStems(words, stems []string) bool {
	for i := 0; i+len(stems) <= len(words); i++ {
		ok := true
		for j, stem := range stems {
			if !strings.HasPrefix(words[i+j], stem) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// TaxCategoryForRate Z para tipo cero, S en cualquier otro caso.
func TaxCategoryForRate(rate decimal.Decimal) string {
	if rate.IsZero() {
		return pkgfiskal.TaxCategoryZeroRated
	}
	return pkgfiskal.TaxCategoryStandard
}
