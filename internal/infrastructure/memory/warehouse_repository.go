package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepository)(nil)

// WarehouseRepository bodegas en memoria.
type WarehouseRepository struct {
	s *session
}

func (r *WarehouseRepository) Create(_ context.Context, w *entity.Warehouse) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.warehouses[w.ID]; ok {
			return fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, w.ID)
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepository) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.s.do(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepository) Update(_ context.Context, w *entity.Warehouse) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.warehouses[w.ID]; !ok {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, w.ID)
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepository) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.s.do(func(st *state) error {
		all := make([]*entity.Warehouse, 0, len(st.warehouses))
		for _, w := range st.warehouses {
			w := w
			all = append(all, &w)
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

func (r *WarehouseRepository) Count(_ context.Context) (int, error) {
	var n int
	err := r.s.do(func(st *state) error {
		n = len(st.warehouses)
		return nil
	})
	return n, err
}

// Delete falla con ErrConflict si la bodega aún tiene ubicaciones o artículos (equivale a la FK).
func (r *WarehouseRepository) Delete(_ context.Context, id string) error {
	return r.s.do(func(st *state) error {
		for _, l := range st.locations {
			if l.WarehouseID == id {
				return fmt.Errorf("%w: la bodega tiene ubicaciones", domain.ErrConflict)
			}
		}
		for _, it := range st.items {
			if it.WarehouseID == id {
				return fmt.Errorf("%w: la bodega tiene artículos", domain.ErrConflict)
			}
		}
		delete(st.warehouses, id)
		return nil
	})
}
