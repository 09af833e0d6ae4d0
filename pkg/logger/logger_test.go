package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("desconocido"))
}

func TestComponent_CamposFijos(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", App: "fiskalizacija-api"}, &buf)

	log := l.Component("fina")
	log.Info().Str("invoice_id", "inv-1").Msg("factura fiscalizada")
	log.Debug().Msg("no se escribe")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "fiskalizacija-api", line["app"])
	assert.Equal(t, "fina", line["component"])
	assert.Equal(t, "inv-1", line["invoice_id"])
	assert.Equal(t, "info", line["level"])
}
