package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Service: "almacen-api", Out: &buf})

	l.Info().Msg("no se escribe")
	c := l.Component("ledger")
	c.Warn().Str("item_id", "i1").Msg("aviso")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "aviso", line["message"])
	assert.Equal(t, "ledger", line["component"])
	assert.Equal(t, "almacen-api", line["service"])
	assert.Equal(t, "i1", line["item_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("ruidoso"))
}
