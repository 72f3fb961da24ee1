package xmlexport

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
)

func sampleReport() *ports.MovementReport {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	return &ports.MovementReport{
		Title:       "Reporte",
		GeneratedAt: ts,
		Filters:     map[string]string{"item_id": "item-1", "movement_type": "move"},
		Totals:      map[string]decimal.Decimal{"move": decimal.RequireFromString("15.5")},
		Rows: []ports.MovementReportRow{{
			ID: "m1", CreatedAt: ts, Kind: "move", ItemSKU: "TOR-001", ItemName: "Tornillo <M6> & tuerca",
			From: "A-01", To: "B-01", Quantity: decimal.RequireFromString("15.5"), UserEmail: "bodega@example.com",
		}},
	}
}

func TestExportMovements_DocumentoLegible(t *testing.T) {
	out, err := NewExporter().ExportMovements(sampleReport())
	require.NoError(t, err)
	assert.Len(t, out.Digest, 64)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out.Document))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Ledger", root.Tag)
	assert.Equal(t, "1", root.SelectAttrValue("count", ""))

	mov := root.FindElement("./Movements/Movement")
	require.NotNil(t, mov)
	assert.Equal(t, "m1", mov.SelectAttrValue("id", ""))
	assert.Equal(t, "Tornillo <M6> & tuerca", mov.FindElement("Item").Text())
	assert.Equal(t, "15.5", mov.FindElement("Quantity").Text())
	assert.Equal(t, "A-01", mov.FindElement("From").Text())
	assert.Equal(t, "15.5", root.FindElement("./Totals/Total[@type='move']").Text())
}

func TestExportMovements_DigestDeterminista(t *testing.T) {
	a, err := NewExporter().ExportMovements(sampleReport())
	require.NoError(t, err)
	b, err := NewExporter().ExportMovements(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.Document, b.Document)

	ok, err := Verify(a.Document, a.Digest)
	require.NoError(t, err)
	assert.True(t, ok)

	tampered := sampleReport()
	tampered.Rows[0].Quantity = decimal.NewFromInt(16)
	c, err := NewExporter().ExportMovements(tampered)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, c.Digest)
}
