package fiskal_test

import (
	"testing"

	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/stretchr/testify/assert"
)

func TestUnitCode(t *testing.T) {
	cases := map[string]string{
		"kom":     "H87",
		"KOM":     "H87",
		"kg":      "KGM",
		"m2":      "MTK",
		"m3":      "MTQ",
		"kWh":     "KWH",
		"h":       "HUR",
		"sat":     "HUR",
		"l":       "LTR",
		"m":       "MTR",
		"mj.":     "MON",
		"paleta":  "EA",
		"":        "EA",
		" kg ":    "KGM",
	}
	for in, want := range cases {
		assert.Equal(t, want, fiskal.UnitCode(in), "unidad %q", in)
	}
}

func TestPaymentMethodOrDefault(t *testing.T) {
	assert.Equal(t, "G", fiskal.PaymentMethodOrDefault(""))
	assert.Equal(t, "K", fiskal.PaymentMethodOrDefault("k"))
	assert.Equal(t, "T", fiskal.PaymentMethodOrDefault("T"))
	assert.Equal(t, "G", fiskal.PaymentMethodOrDefault("X"))
}
