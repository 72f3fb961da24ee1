package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepository)(nil)

// ItemRepository artículos en memoria. SKU y barcode son únicos.
type ItemRepository struct {
	s *session
}

func itemConflict(st *state, it *entity.Item) error {
	for _, o := range st.items {
		if o.ID == it.ID {
			continue
		}
		if o.SKU == it.SKU {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, it.SKU)
		}
		if it.Barcode != nil && o.Barcode != nil && *o.Barcode == *it.Barcode {
			return fmt.Errorf("%w: barcode %s", domain.ErrDuplicate, *it.Barcode)
		}
	}
	return nil
}

func (r *ItemRepository) Create(_ context.Context, it *entity.Item) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.items[it.ID]; ok {
			return fmt.Errorf("%w: artículo %s", domain.ErrDuplicate, it.ID)
		}
		if err := itemConflict(st, it); err != nil {
			return err
		}
		st.items[it.ID] = *it
		return nil
	})
}

func (r *ItemRepository) GetByID(_ context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.s.do(func(st *state) error {
		if it, ok := st.items[id]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

// GetByCode busca primero por barcode y luego por SKU.
// GetForUpdate igual que GetByID: las transacciones en memoria ya son exclusivas.
func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *ItemRepository) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	var out *entity.Item
	err := r.s.do(func(st *state) error {
		for _, it := range st.items {
			if it.Barcode != nil && *it.Barcode == code {
				it := it
				out = &it
				return nil
			}
		}
		for _, it := range st.items {
			if it.SKU == code {
				it := it
				out = &it
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Update conserva la cantidad almacenada: solo el libro la modifica.
func (r *ItemRepository) Update(_ context.Context, it *entity.Item) error {
	return r.s.do(func(st *state) error {
		cur, ok := st.items[it.ID]
		if !ok {
			return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, it.ID)
		}
		if err := itemConflict(st, it); err != nil {
			return err
		}
		next := *it
		next.Quantity = cur.Quantity
		st.items[it.ID] = next
		return nil
	})
}

func matches(it entity.Item, f repository.ItemFilter) bool {
	if f.WarehouseID != "" && it.WarehouseID != f.WarehouseID {
		return false
	}
	if f.LowStock && !it.IsLowStock() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(it.Name) + "\x00" + strings.ToLower(it.SKU)
		if it.Barcode != nil {
			hay += "\x00" + strings.ToLower(*it.Barcode)
		}
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

func (r *ItemRepository) List(_ context.Context, f repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.s.do(func(st *state) error {
		all := make([]*entity.Item, 0)
		for _, it := range st.items {
			if matches(it, f) {
				it := it
				all = append(all, &it)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].ID < all[j].ID
		})
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *ItemRepository) Count(_ context.Context, f repository.ItemFilter) (int, error) {
	var n int
	err := r.s.do(func(st *state) error {
		for _, it := range st.items {
			if matches(it, f) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ItemRepository) Delete(_ context.Context, id string) error {
	return r.s.do(func(st *state) error {
		for k := range st.balances {
			if k.itemID == id {
				delete(st.balances, k)
			}
		}
		delete(st.items, id)
		return nil
	})
}

func (r *ItemRepository) AdjustQuantity(_ context.Context, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := r.s.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
		}
		next := it.Quantity.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("%w: total del artículo %s", domain.ErrInsufficientStock, id)
		}
		it.Quantity = next
		it.UpdatedAt = time.Now().UTC()
		st.items[id] = it
		out = next
		return nil
	})
	return out, err
}

func (r *ItemRepository) SetQuantity(_ context.Context, id string, quantity decimal.Decimal) error {
	return r.s.do(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
		}
		it.Quantity = quantity
		it.UpdatedAt = time.Now().UTC()
		st.items[id] = it
		return nil
	})
}
