package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepository)(nil)

// LocationRepository ubicaciones en memoria. Code es único por bodega.
type LocationRepository struct {
	s *session
}

func codeTaken(st *state, l *entity.StorageLocation) bool {
	for _, o := range st.locations {
		if o.ID != l.ID && o.WarehouseID == l.WarehouseID && o.Code == l.Code {
			return true
		}
	}
	return false
}

func (r *LocationRepository) Create(_ context.Context, l *entity.StorageLocation) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.warehouses[l.WarehouseID]; !ok {
			return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, l.WarehouseID)
		}
		if _, ok := st.locations[l.ID]; ok || codeTaken(st, l) {
			return fmt.Errorf("%w: código de ubicación %s", domain.ErrDuplicate, l.Code)
		}
		st.locations[l.ID] = *l
		return nil
	})
}

func (r *LocationRepository) GetByID(_ context.Context, id string) (*entity.StorageLocation, error) {
	var out *entity.StorageLocation
	err := r.s.do(func(st *state) error {
		if l, ok := st.locations[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *LocationRepository) Update(_ context.Context, l *entity.StorageLocation) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.locations[l.ID]; !ok {
			return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, l.ID)
		}
		if codeTaken(st, l) {
			return fmt.Errorf("%w: código de ubicación %s", domain.ErrDuplicate, l.Code)
		}
		st.locations[l.ID] = *l
		return nil
	})
}

func (r *LocationRepository) ListByWarehouse(_ context.Context, warehouseID string, limit, offset int) ([]*entity.StorageLocation, error) {
	var out []*entity.StorageLocation
	err := r.s.do(func(st *state) error {
		all := make([]*entity.StorageLocation, 0)
		for _, l := range st.locations {
			if l.WarehouseID == warehouseID {
				l := l
				all = append(all, &l)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *LocationRepository) CountByWarehouse(_ context.Context, warehouseID string) (int, error) {
	var n int
	err := r.s.do(func(st *state) error {
		for _, l := range st.locations {
			if l.WarehouseID == warehouseID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *LocationRepository) Delete(_ context.Context, id string) error {
	return r.s.do(func(st *state) error {
		for k := range st.balances {
			if k.locationID == id {
				delete(st.balances, k)
			}
		}
		for k, it := range st.items {
			if it.LocationID != nil && *it.LocationID == id {
				it.LocationID = nil
				st.items[k] = it
			}
		}
		delete(st.locations, id)
		return nil
	})
}
