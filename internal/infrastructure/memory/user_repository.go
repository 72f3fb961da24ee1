package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository usuarios en memoria. Email ya llega normalizado.
type UserRepository struct {
	s *session
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	return r.s.do(func(st *state) error {
		for _, o := range st.users {
			if o.ID == u.ID || o.Email == u.Email {
				return fmt.Errorf("%w: usuario %s", domain.ErrDuplicate, u.Email)
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) CreateFirstAdmin(_ context.Context, u *entity.User) error {
	return r.s.do(func(st *state) error {
		for _, o := range st.users {
			if o.ID == u.ID || o.Email == u.Email {
				return fmt.Errorf("%w: usuario %s", domain.ErrDuplicate, u.Email)
			}
		}
		if len(st.users) == 0 {
			u.Role = entity.RoleAdmin
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.s.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.s.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.ErrUserNotFound
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	err := r.s.do(func(st *state) error {
		all := make([]*entity.User, 0, len(st.users))
		for _, u := range st.users {
			u := u
			all = append(all, &u)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
			return all[i].Email < all[j].Email
		})
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	var n int
	err := r.s.do(func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}
