package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// MaxReportRows tope de movimientos por reporte.
const MaxReportRows = 1000

// ReportUseCase genera reportes del libro de movimientos (PDF y XML).
type ReportUseCase struct {
	movements repository.StockMovementRepository
	items     repository.ItemRepository
	locations repository.LocationRepository
	users     repository.UserRepository
	pdf       ports.PDFRenderer
	xml       ports.XMLExporter
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(
	movements repository.StockMovementRepository,
	items repository.ItemRepository,
	locations repository.LocationRepository,
	users repository.UserRepository,
	pdf ports.PDFRenderer,
	xml ports.XMLExporter,
) *ReportUseCase {
	return &ReportUseCase{movements: movements, items: items, locations: locations, users: users, pdf: pdf, xml: xml}
}

// MovementsPDF genera el reporte PDF de movimientos que cumplen el filtro.
func (uc *ReportUseCase) MovementsPDF(ctx context.Context, filter repository.MovementFilter) ([]byte, error) {
	report, err := uc.Build(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.pdf.RenderMovements(report)
}

// MovementsXML exporta el libro a XML canónico con su digest.
func (uc *ReportUseCase) MovementsXML(ctx context.Context, filter repository.MovementFilter) (*ports.LedgerExport, error) {
	report, err := uc.Build(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.xml.ExportMovements(report)
}

// Build arma el reporte resolviendo SKU, ubicaciones y usuarios de cada movimiento.
func (uc *ReportUseCase) Build(ctx context.Context, filter repository.MovementFilter) (*ports.MovementReport, error) {
	list, err := uc.movements.List(ctx, filter, MaxReportRows, 0)
	if err != nil {
		return nil, err
	}
	report := &ports.MovementReport{
		Title:       "Reporte de movimientos de inventario",
		GeneratedAt: time.Now().UTC(),
		Filters:     describeFilter(filter),
		Totals:      map[string]decimal.Decimal{},
		Rows:        make([]ports.MovementReportRow, 0, len(list)),
	}
	items := map[string]*entity.Item{}
	locations := map[string]string{}
	users := map[string]string{}

	for _, m := range list {
		item, ok := items[m.ItemID]
		if !ok {
			if item, err = uc.items.GetByID(ctx, m.ItemID); err != nil {
				return nil, err
			}
			items[m.ItemID] = item
		}
		row := ports.MovementReportRow{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			Kind:      m.Kind,
			Quantity:  m.Quantity,
			Notes:     m.Notes,
		}
		if item != nil {
			row.ItemSKU, row.ItemName = item.SKU, item.Name
		}
		if row.From, err = uc.locationLabel(ctx, locations, m.FromLocationID); err != nil {
			return nil, err
		}
		if row.To, err = uc.locationLabel(ctx, locations, m.ToLocationID); err != nil {
			return nil, err
		}
		email, ok := users[m.UserID]
		if !ok {
			u, err := uc.users.GetByID(ctx, m.UserID)
			if err != nil {
				return nil, err
			}
			if u != nil {
				email = u.Email
			}
			users[m.UserID] = email
		}
		row.UserEmail = email

		report.Totals[m.Kind] = report.Totals[m.Kind].Add(m.Quantity)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

func (uc *ReportUseCase) locationLabel(ctx context.Context, cache map[string]string, id *string) (string, error) {
	if id == nil {
		return "", nil
	}
	if label, ok := cache[*id]; ok {
		return label, nil
	}
	loc, err := uc.locations.GetByID(ctx, *id)
	if err != nil {
		return "", err
	}
	label := *id
	if loc != nil {
		label = loc.Code
	}
	cache[*id] = label
	return label, nil
}

func describeFilter(f repository.MovementFilter) map[string]string {
	out := map[string]string{}
	if f.ItemID != "" {
		out["item_id"] = f.ItemID
	}
	if f.LocationID != "" {
		out["location_id"] = f.LocationID
	}
	if f.Kind != "" {
		out["movement_type"] = f.Kind
	}
	if f.UserID != "" {
		out["user_id"] = f.UserID
	}
	if f.From != nil {
		out["from"] = f.From.Format(time.RFC3339)
	}
	if f.To != nil {
		out["to"] = f.To.Format(time.RFC3339)
	}
	return out
}
