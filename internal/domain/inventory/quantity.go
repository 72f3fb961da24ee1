package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// QuantityScale decimales que guardan las columnas de cantidad (NUMERIC(18,4)).
const QuantityScale = 4

// MaxQuantity mayor valor representable en NUMERIC(18,4).
var MaxQuantity = decimal.New(1, 18-QuantityScale).Sub(decimal.New(1, -QuantityScale))

// CheckQuantity rechaza cantidades que la base redondearía o no podría guardar:
// más de QuantityScale decimales o un valor absoluto por encima de MaxQuantity.
func CheckQuantity(field string, q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityScale)) {
		return fmt.Errorf("%w: %s admite como máximo %d decimales", domain.ErrInvalidInput, field, QuantityScale)
	}
	if q.Abs().GreaterThan(MaxQuantity) {
		return fmt.Errorf("%w: %s supera el máximo %s", domain.ErrInvalidInput, field, MaxQuantity.String())
	}
	return nil
}
