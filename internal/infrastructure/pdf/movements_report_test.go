package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
)

func TestFormatQuantity(t *testing.T) {
	cases := map[string]string{
		"0":       "0",
		"999":     "999",
		"1000":    "1.000",
		"1250.5":  "1.250,5",
		"1000000": "1.000.000",
		"-2500":   "-2.500",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatQuantity(decimal.RequireFromString(in)), in)
	}
}

func TestRenderMovements_GeneraPDF(t *testing.T) {
	report := &ports.MovementReport{
		Title:       "Reporte de movimientos de inventario",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Filters:     map[string]string{"movement_type": "inbound"},
		Totals:      map[string]decimal.Decimal{"inbound": decimal.NewFromInt(15)},
		Rows: []ports.MovementReportRow{
			{ID: "m1", CreatedAt: time.Now(), Kind: "inbound", ItemSKU: "TOR-001", ItemName: "Tornillo", To: "A-01", Quantity: decimal.NewFromInt(10), UserEmail: "bodega@example.com"},
			{ID: "m2", CreatedAt: time.Now(), Kind: "inbound", ItemSKU: "TOR-001", ItemName: "Tornillo", To: "A-01", Quantity: decimal.NewFromInt(5), UserEmail: "bodega@example.com"},
		},
	}
	out, err := NewMarotoRenderer().RenderMovements(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un documento PDF")
}

func TestRenderMovements_SinFilas(t *testing.T) {
	out, err := NewMarotoRenderer().RenderMovements(&ports.MovementReport{Title: "Vacío", GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
