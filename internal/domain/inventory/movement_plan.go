package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Leg es el ajuste de saldo que un movimiento aplica sobre una ubicación.
type Leg struct {
	LocationID string
	Delta      decimal.Decimal
}

// MovementPlan es la forma validada de un movimiento: qué saldos cambia y en cuánto.
type MovementPlan struct {
	Kind     string
	Quantity decimal.Decimal
	From     *string
	To       *string
	Legs     []Leg // en orden de aplicación: primero el origen
}

// PlanMovement valida la combinación tipo/ubicaciones/cantidad y devuelve el plan.
// Los errores envuelven domain.ErrInvalidInput.
func PlanMovement(kind string, quantity decimal.Decimal, from, to *string) (*MovementPlan, error) {
	from, to = normalize(from), normalize(to)
	if !quantity.IsPositive() {
		return nil, invalid("la cantidad debe ser mayor que cero")
	}
	if err := CheckQuantity("quantity", quantity); err != nil {
		return nil, err
	}
	plan := &MovementPlan{Kind: kind, Quantity: quantity, From: from, To: to}
	switch kind {
	case entity.MovementInbound:
		if to == nil {
			return nil, invalid("inbound requiere to_location_id")
		}
		if from != nil {
			return nil, invalid("inbound no admite from_location_id")
		}
		plan.Legs = []Leg{{LocationID: *to, Delta: quantity}}
	case entity.MovementOutbound:
		if from == nil {
			return nil, invalid("outbound requiere from_location_id")
		}
		if to != nil {
			return nil, invalid("outbound no admite to_location_id")
		}
		plan.Legs = []Leg{{LocationID: *from, Delta: quantity.Neg()}}
	case entity.MovementMove:
		if from == nil || to == nil {
			return nil, invalid("move requiere from_location_id y to_location_id")
		}
		if *from == *to {
			return nil, invalid("origen y destino deben ser distintos")
		}
		plan.Legs = []Leg{
			{LocationID: *from, Delta: quantity.Neg()},
			{LocationID: *to, Delta: quantity},
		}
	default:
		return nil, invalid(fmt.Sprintf("tipo de movimiento desconocido %q (use inbound, outbound o move)", kind))
	}
	return plan, nil
}

// LockOrder devuelve las ubicaciones a bloquear, ordenadas y sin repetir, para que dos
// traslados cruzados no se bloqueen mutuamente.
func (p *MovementPlan) LockOrder() []string {
	ids := make([]string, 0, len(p.Legs))
	for _, l := range p.Legs {
		ids = append(ids, l.LocationID)
	}
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

// NetDelta es el cambio en el total del artículo.
func (p *MovementPlan) NetDelta() decimal.Decimal {
	net := decimal.Zero
	for _, l := range p.Legs {
		net = net.Add(l.Delta)
	}
	return net
}

func normalize(id *string) *string {
	if id == nil {
		return nil
	}
	s := strings.TrimSpace(*id)
	if s == "" {
		return nil
	}
	return &s
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason)
}
