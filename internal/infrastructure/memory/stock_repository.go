package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepository)(nil)

// StockRepository saldos por (artículo, ubicación) en memoria.
type StockRepository struct {
	s *session
}

func (r *StockRepository) Get(_ context.Context, itemID, locationID string) (*entity.StockBalance, error) {
	out := &entity.StockBalance{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}
	err := r.s.do(func(st *state) error {
		if b, ok := st.balances[balanceKey{itemID, locationID}]; ok {
			*out = b
		}
		return nil
	})
	return out, err
}

// LockForUpdate crea los saldos que falten. El candado real es el de la transacción del almacén.
func (r *StockRepository) LockForUpdate(_ context.Context, itemID string, locationIDs []string) (map[string]*entity.StockBalance, error) {
	out := make(map[string]*entity.StockBalance, len(locationIDs))
	err := r.s.do(func(st *state) error {
		for _, locID := range locationIDs {
			k := balanceKey{itemID, locID}
			b, ok := st.balances[k]
			if !ok {
				b = entity.StockBalance{ItemID: itemID, LocationID: locID, Quantity: decimal.Zero, UpdatedAt: time.Now().UTC()}
				st.balances[k] = b
			}
			out[locID] = &b
		}
		return nil
	})
	return out, err
}

func (r *StockRepository) Apply(_ context.Context, itemID, locationID string, delta decimal.Decimal) (*entity.StockBalance, error) {
	var out *entity.StockBalance
	err := r.s.do(func(st *state) error {
		k := balanceKey{itemID, locationID}
		b, ok := st.balances[k]
		if !ok {
			b = entity.StockBalance{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}
		}
		next := b.Quantity.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("%w: disponible %s en %s", domain.ErrInsufficientStock, b.Quantity, locationID)
		}
		b.Quantity = next
		b.UpdatedAt = time.Now().UTC()
		st.balances[k] = b
		out = &b
		return nil
	})
	return out, err
}

func (r *StockRepository) ListByItem(_ context.Context, itemID string) ([]*entity.StockBalance, error) {
	var out []*entity.StockBalance
	err := r.s.do(func(st *state) error {
		for k, b := range st.balances {
			if k.itemID == itemID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, err
}

func (r *StockRepository) ListByLocation(_ context.Context, locationID string) ([]*entity.StockBalance, error) {
	var out []*entity.StockBalance
	err := r.s.do(func(st *state) error {
		for k, b := range st.balances {
			if k.locationID == locationID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, err
}

func (r *StockRepository) HasStock(_ context.Context, locationID string) (bool, error) {
	var found bool
	err := r.s.do(func(st *state) error {
		for k, b := range st.balances {
			if k.locationID == locationID && b.Quantity.IsPositive() {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *StockRepository) Discrepancies(_ context.Context) ([]entity.StockDiscrepancy, error) {
	var out []entity.StockDiscrepancy
	err := r.s.do(func(st *state) error {
		sums := make(map[string]decimal.Decimal, len(st.items))
		for k, b := range st.balances {
			sums[k.itemID] = sums[k.itemID].Add(b.Quantity)
		}
		for _, it := range st.items {
			if total := sums[it.ID]; !total.Equal(it.Quantity) {
				out = append(out, entity.StockDiscrepancy{
					ItemID:        it.ID,
					SKU:           it.SKU,
					ItemQuantity:  it.Quantity,
					BalancesTotal: total,
				})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, err
}
