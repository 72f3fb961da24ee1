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

// LocationUseCase casos de uso CRUD para ubicaciones de almacenamiento.
type LocationUseCase struct {
	repo       repository.LocationRepository
	warehouses repository.WarehouseRepository
	stock      repository.StockRepository
	movements  repository.StockMovementRepository
	cache      ports.Cache
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(
	repo repository.LocationRepository,
	warehouses repository.WarehouseRepository,
	stock repository.StockRepository,
	movements repository.StockMovementRepository,
	cache ports.Cache,
) *LocationUseCase {
	return &LocationUseCase{repo: repo, warehouses: warehouses, stock: stock, movements: movements, cache: orNoop(cache)}
}

// Create crea una ubicación en la bodega indicada. El código debe ser único dentro de la bodega.
func (uc *LocationUseCase) Create(ctx context.Context, warehouseID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	warehouse, err := uc.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	now := time.Now().UTC()
	loc := &entity.StorageLocation{
		ID:          uuid.New().String(),
		WarehouseID: warehouse.ID,
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		Type:        strings.TrimSpace(in.Type),
		Capacity:    in.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if loc.Name == "" || loc.Code == "" {
		return nil, fmt.Errorf("%w: name y code son requeridos", domain.ErrInvalidInput)
	}
	if loc.Type == "" {
		loc.Type = entity.LocationTypeShelf
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeLocations)
	return toLocationResponse(loc), nil
}

// GetByID obtiene una ubicación por ID.
func (uc *LocationUseCase) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return toLocationResponse(loc), nil
}

// Update actualiza una ubicación (solo los campos enviados).
func (uc *LocationUseCase) Update(ctx context.Context, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	if in.Name != nil {
		loc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		loc.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.Type != nil {
		loc.Type = strings.TrimSpace(*in.Type)
	}
	if in.Capacity != nil {
		loc.Capacity = *in.Capacity
	}
	if loc.Name == "" || loc.Code == "" {
		return nil, fmt.Errorf("%w: name y code no pueden quedar vacíos", domain.ErrInvalidInput)
	}
	loc.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeLocations)
	return toLocationResponse(loc), nil
}

// ListByWarehouse lista las ubicaciones de una bodega.
func (uc *LocationUseCase) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) (*dto.LocationListResponse, error) {
	warehouse, err := uc.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	key := fmt.Sprintf("warehouse:%s:%d:%d", warehouseID, limit, offset)
	var out dto.LocationListResponse
	ok, version, cacheErr := uc.cache.Get(ctx, ports.ScopeLocations, key, &out)
	if cacheErr == nil && ok {
		return &out, nil
	}
	list, err := uc.repo.ListByWarehouse(ctx, warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.CountByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	out = dto.LocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}
	if cacheErr == nil {
		_ = uc.cache.Set(ctx, ports.ScopeLocations, key, version, out, listTTL)
	}
	return &out, nil
}

// Delete elimina una ubicación sin saldo ni movimientos registrados.
func (uc *LocationUseCase) Delete(ctx context.Context, id string) error {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	hasStock, err := uc.stock.HasStock(ctx, id)
	if err != nil {
		return err
	}
	if hasStock {
		return fmt.Errorf("%w: la ubicación tiene saldo", domain.ErrConflict)
	}
	used, err := uc.movements.ExistsForLocation(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: la ubicación tiene movimientos en el libro", domain.ErrConflict)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, uc.cache, ports.ScopeLocations, ports.ScopeStock)
	return nil
}

func toLocationResponse(l *entity.StorageLocation) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:          l.ID,
		WarehouseID: l.WarehouseID,
		Name:        l.Name,
		Code:        l.Code,
		Type:        l.Type,
		Capacity:    l.Capacity,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
