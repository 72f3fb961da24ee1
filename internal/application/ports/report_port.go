package ports

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementReportRow fila del reporte de movimientos con nombres ya resueltos.
type MovementReportRow struct {
	ID        string
	CreatedAt time.Time
	Kind      string
	ItemSKU   string
	ItemName  string
	From      string
	To        string
	Quantity  decimal.Decimal
	UserEmail string
	Notes     string
}

// MovementReport datos de entrada para los generadores de reportes.
type MovementReport struct {
	Title       string
	GeneratedAt time.Time
	Filters     map[string]string
	Totals      map[string]decimal.Decimal // por tipo de movimiento
	Rows        []MovementReportRow
}

// PDFRenderer genera la representación PDF del reporte.
type PDFRenderer interface {
	RenderMovements(report *MovementReport) ([]byte, error)
}

// LedgerExport resultado de exportar el libro a XML.
type LedgerExport struct {
	Document []byte // XML canónico (C14N)
	Digest   string // SHA-256 hex del documento
}

// XMLExporter exporta el libro de movimientos a XML.
type XMLExporter interface {
	ExportMovements(report *MovementReport) (*LedgerExport, error)
}
