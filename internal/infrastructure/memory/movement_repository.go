package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// StockMovementRepository libro de movimientos en memoria (solo inserción).
type StockMovementRepository struct {
	s *session
}

func (r *StockMovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	return r.s.do(func(st *state) error {
		for _, o := range st.movements {
			if o.ID == m.ID {
				return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
			}
			if m.IdempotencyKey != nil && o.IdempotencyKey != nil && *o.IdempotencyKey == *m.IdempotencyKey {
				return fmt.Errorf("%w: clave de idempotencia", domain.ErrDuplicate)
			}
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *StockMovementRepository) find(pred func(m *entity.StockMovement) bool) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.s.do(func(st *state) error {
		for i := range st.movements {
			if pred(&st.movements[i]) {
				m := st.movements[i]
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *StockMovementRepository) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	return r.find(func(m *entity.StockMovement) bool { return m.ID == id })
}

func (r *StockMovementRepository) GetByIdempotencyKey(_ context.Context, key string) (*entity.StockMovement, error) {
	return r.find(func(m *entity.StockMovement) bool { return m.IdempotencyKey != nil && *m.IdempotencyKey == key })
}

func movementMatches(m *entity.StockMovement, f repository.MovementFilter) bool {
	if f.ItemID != "" && m.ItemID != f.ItemID {
		return false
	}
	if f.LocationID != "" && !m.TouchesLocation(f.LocationID) {
		return false
	}
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// List devuelve del más reciente al más antiguo.
func (r *StockMovementRepository) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.s.do(func(st *state) error {
		all := make([]*entity.StockMovement, 0)
		for i := range st.movements {
			if movementMatches(&st.movements[i], f) {
				m := st.movements[i]
				all = append(all, &m)
			}
		}
		// Orden de inserción invertido como desempate para marcas de tiempo iguales.
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *StockMovementRepository) Count(_ context.Context, f repository.MovementFilter) (int, error) {
	var n int
	err := r.s.do(func(st *state) error {
		for i := range st.movements {
			if movementMatches(&st.movements[i], f) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *StockMovementRepository) ExistsForItem(_ context.Context, itemID string) (bool, error) {
	m, err := r.find(func(m *entity.StockMovement) bool { return m.ItemID == itemID })
	return m != nil, err
}

func (r *StockMovementRepository) ExistsForLocation(_ context.Context, locationID string) (bool, error) {
	m, err := r.find(func(m *entity.StockMovement) bool { return m.TouchesLocation(locationID) })
	return m != nil, err
}
