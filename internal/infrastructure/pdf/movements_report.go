// Package pdf genera el reporte PDF del libro de movimientos.
//
// Layout de la página A4 horizontal:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de generación                       │
//	│  FILTROS aplicados                                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | SKU | Artículo | Origen | Destino |  │
//	│         Cantidad | Usuario                                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES por tipo de movimiento                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"sort"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
)

var _ ports.PDFRenderer = (*MarotoRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 235, Green: 241, Blue: 247}
)

var kindLabels = map[string]string{
	"inbound":  "Entrada",
	"outbound": "Salida",
	"move":     "Traslado",
}

// MarotoRenderer implementa ports.PDFRenderer con Maroto v2.
type MarotoRenderer struct{}

func NewMarotoRenderer() *MarotoRenderer { return &MarotoRenderer{} }

// RenderMovements genera el PDF y devuelve sus bytes.
func (g *MarotoRenderer) RenderMovements(report *ports.MovementReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(report.Title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(report))
	if len(report.Filters) > 0 {
		m.AddRows(filtersRow(report.Filters))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Rows) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos para los filtros indicados.", props.Text{Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}
	m.AddRows(tableRows(report.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(report.Totals)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *ports.MovementReport) core.Row {
	return row.New(14).Add(
		col.New(8).Add(text.New(report.Title, props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
		})),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%d movimientos", len(report.Rows)), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func filtersRow(filters map[string]string) core.Row {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+filters[k])
	}
	return row.New(6).Add(col.New(12).Add(
		text.New("Filtros: "+strings.Join(parts, "   |   "), props.Text{Size: 7, Color: colorGray, Top: 1}),
	))
}

var columns = []struct {
	label string
	size  int
	align align.Type
}{
	{"Fecha", 2, align.Left},
	{"Tipo", 1, align.Left},
	{"SKU", 1, align.Left},
	{"Artículo", 2, align.Left},
	{"Origen", 1, align.Left},
	{"Destino", 1, align.Left},
	{"Cantidad", 1, align.Right},
	{"Usuario", 3, align.Left},
}

func tableHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Align: c.align, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...)
}

func tableRows(rows []ports.MovementReportRow) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for i, r := range rows {
		values := []string{
			r.CreatedAt.Format("02/01/2006 15:04:05"),
			kindLabel(r.Kind),
			r.ItemSKU,
			r.ItemName,
			nonEmpty(r.From, "-"),
			nonEmpty(r.To, "-"),
			formatQuantity(r.Quantity),
			r.UserEmail,
		}
		cols := make([]core.Col, 0, len(columns))
		for j, c := range columns {
			cols = append(cols, col.New(c.size).Add(text.New(values[j], props.Text{
				Align: c.align, Top: 1, Left: 1, Right: 1,
			})))
		}
		tr := row.New(6).Add(cols...)
		if i%2 == 1 {
			tr = tr.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		out = append(out, tr)
	}
	return out
}

func totalsRows(totals map[string]decimal.Decimal) []core.Row {
	kinds := make([]string, 0, len(totals))
	for k := range totals {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out := make([]core.Row, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, row.New(6).Add(
			col.New(8),
			col.New(2).Add(text.New("Total "+strings.ToLower(kindLabel(k))+":", props.Text{
				Style: fontstyle.Bold, Align: align.Right, Top: 1, Right: 2,
			})),
			col.New(2).Add(text.New(formatQuantity(totals[k]), props.Text{
				Style: fontstyle.Bold, Align: align.Right, Top: 1, Right: 1, Color: colorPrimary,
			})),
		))
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

func kindLabel(kind string) string {
	if l, ok := kindLabels[kind]; ok {
		return l
	}
	return kind
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQuantity separa miles con punto y decimales con coma.
// Ej: 1250.5 → "1.250,5", 1000000 → "1.000.000"
func formatQuantity(d decimal.Decimal) string {
	s := d.Abs().String()
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+len(frac)+2)
	if d.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	if frac != "" {
		buf = append(buf, ',')
		buf = append(buf, frac...)
	}
	return string(buf)
}
