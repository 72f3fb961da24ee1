package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// WarehouseUseCase casos de uso CRUD para bodegas.
type WarehouseUseCase struct {
	repo      repository.WarehouseRepository
	locations repository.LocationRepository
	cache     ports.Cache
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, locations repository.LocationRepository, cache ports.Cache) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, locations: locations, cache: orNoop(cache)}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Location:    strings.TrimSpace(in.Location),
		Capacity:    in.Capacity,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if warehouse.Name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeWarehouses)
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza una bodega (solo los campos enviados).
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	if in.Name != nil {
		warehouse.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		warehouse.Location = strings.TrimSpace(*in.Location)
	}
	if in.Capacity != nil {
		warehouse.Capacity = *in.Capacity
	}
	if in.Description != nil {
		warehouse.Description = *in.Description
	}
	if warehouse.Name == "" {
		return nil, fmt.Errorf("%w: name no puede quedar vacío", domain.ErrInvalidInput)
	}
	warehouse.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeWarehouses)
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas con paginación (lectura cacheada).
func (uc *WarehouseUseCase) List(ctx context.Context, limit, offset int) (*dto.WarehouseListResponse, error) {
	key := fmt.Sprintf("list:%d:%d", limit, offset)
	var out dto.WarehouseListResponse
	ok, version, cacheErr := uc.cache.Get(ctx, ports.ScopeWarehouses, key, &out)
	if cacheErr == nil && ok {
		return &out, nil
	}
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	out = dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}
	if cacheErr == nil {
		_ = uc.cache.Set(ctx, ports.ScopeWarehouses, key, version, out, listTTL)
	}
	return &out, nil
}

// Delete elimina una bodega sin ubicaciones. Con ubicaciones devuelve ErrConflict.
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	n, err := uc.locations.CountByWarehouse(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: la bodega tiene %d ubicaciones", domain.ErrConflict, n)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, uc.cache, ports.ScopeWarehouses)
	return nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:          w.ID,
		Name:        w.Name,
		Location:    w.Location,
		Capacity:    w.Capacity,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
