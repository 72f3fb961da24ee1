package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ItemUseCase casos de uso CRUD para artículos. Quantity se maneja vía movimientos.
type ItemUseCase struct {
	txRunner   inventory.TxRunner
	repo       repository.ItemRepository
	warehouses repository.WarehouseRepository
	locations  repository.LocationRepository
	movements  repository.StockMovementRepository
	ledger     *inventory.RegisterMovementUseCase
	cache      ports.Cache
}

// NewItemUseCase construye el caso de uso. ledger registra la cantidad inicial como movimiento inbound.
func NewItemUseCase(
	txRunner inventory.TxRunner,
	repo repository.ItemRepository,
	warehouses repository.WarehouseRepository,
	locations repository.LocationRepository,
	movements repository.StockMovementRepository,
	ledger *inventory.RegisterMovementUseCase,
	cache ports.Cache,
) *ItemUseCase {
	return &ItemUseCase{
		txRunner:   txRunner,
		repo:       repo,
		warehouses: warehouses,
		locations:  locations,
		movements:  movements,
		ledger:     ledger,
		cache:      orNoop(cache),
	}
}

// Create crea un artículo. Si trae quantity > 0, el alta y el movimiento inbound van en la misma transacción.
func (uc *ItemUseCase) Create(ctx context.Context, userID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	now := time.Now().UTC()
	item := &entity.Item{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		SKU:         strings.TrimSpace(in.SKU),
		Barcode:     trimOptional(in.Barcode),
		Description: in.Description,
		Quantity:    decimal.Zero,
		MinQuantity: decimal.Zero,
		WarehouseID: strings.TrimSpace(in.WarehouseID),
		LocationID:  trimOptional(in.LocationID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.Name == "" || item.SKU == "" {
		return nil, fmt.Errorf("%w: name y sku son requeridos", domain.ErrInvalidInput)
	}
	if in.MinQuantity != nil {
		if in.MinQuantity.IsNegative() {
			return nil, fmt.Errorf("%w: min_quantity no puede ser negativa", domain.ErrInvalidInput)
		}
		if err := domaininv.CheckQuantity("min_quantity", *in.MinQuantity); err != nil {
			return nil, err
		}
		item.MinQuantity = *in.MinQuantity
	}
	initial := decimal.Zero
	if in.Quantity != nil {
		initial = *in.Quantity
	}
	if initial.IsNegative() {
		return nil, fmt.Errorf("%w: quantity no puede ser negativa", domain.ErrInvalidInput)
	}
	if err := domaininv.CheckQuantity("quantity", initial); err != nil {
		return nil, err
	}
	if initial.IsPositive() && item.LocationID == nil {
		return nil, fmt.Errorf("%w: una cantidad inicial requiere location_id", domain.ErrInvalidInput)
	}
	if err := uc.checkPlacement(ctx, item.WarehouseID, item.LocationID); err != nil {
		return nil, err
	}

	err := uc.txRunner.Run(ctx, func(r inventory.TxRepos) error {
		if err := r.Items.Create(ctx, item); err != nil {
			return err
		}
		if !initial.IsPositive() {
			return nil
		}
		res, err := uc.ledger.ApplyInTx(ctx, r, inventory.MovementInput{
			ItemID:       item.ID,
			Kind:         entity.MovementInbound,
			Quantity:     initial,
			ToLocationID: item.LocationID,
			UserID:       userID,
			Notes:        "cantidad inicial",
		})
		if err != nil {
			return err
		}
		item.Quantity = res.ItemQuantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeItems, ports.ScopeStock, ports.ScopeMovements)
	return toItemResponse(item), nil
}

// GetByID obtiene un artículo por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	return toItemResponse(item), nil
}

// GetByCode busca un artículo por código de barras o SKU.
func (uc *ItemUseCase) GetByCode(ctx context.Context, code string) (*dto.ItemResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código vacío", domain.ErrInvalidInput)
	}
	item, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: artículo con código %s", domain.ErrNotFound, code)
	}
	return toItemResponse(item), nil
}

// List lista artículos con búsqueda por nombre/sku/barcode y filtro por bodega (lectura cacheada).
func (uc *ItemUseCase) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) (*dto.ItemListResponse, error) {
	key := fmt.Sprintf("list:%s:%s:%t:%d:%d", filter.Search, filter.WarehouseID, filter.LowStock, limit, offset)
	var out dto.ItemListResponse
	ok, version, cacheErr := uc.cache.Get(ctx, ports.ScopeItems, key, &out)
	if cacheErr == nil && ok {
		return &out, nil
	}
	list, err := uc.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	out = dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}
	if cacheErr == nil {
		_ = uc.cache.Set(ctx, ports.ScopeItems, key, version, out, listTTL)
	}
	return &out, nil
}

// LowStock lista los artículos con total en o por debajo de su mínimo.
func (uc *ItemUseCase) LowStock(ctx context.Context, warehouseID string, limit, offset int) (*dto.ItemListResponse, error) {
	return uc.List(ctx, repository.ItemFilter{WarehouseID: warehouseID, LowStock: true}, limit, offset)
}

// Update actualiza los datos descriptivos de un artículo. Un quantity distinto del actual se rechaza.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	if in.Quantity != nil && !in.Quantity.Equal(item.Quantity) {
		return nil, domain.ErrQuantityReadOnly
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		item.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Barcode != nil {
		item.Barcode = trimOptional(in.Barcode)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.MinQuantity != nil {
		if in.MinQuantity.IsNegative() {
			return nil, fmt.Errorf("%w: min_quantity no puede ser negativa", domain.ErrInvalidInput)
		}
		if err := domaininv.CheckQuantity("min_quantity", *in.MinQuantity); err != nil {
			return nil, err
		}
		item.MinQuantity = *in.MinQuantity
	}
	if in.WarehouseID != nil {
		item.WarehouseID = strings.TrimSpace(*in.WarehouseID)
	}
	if in.LocationID != nil {
		item.LocationID = trimOptional(in.LocationID)
	}
	if item.Name == "" || item.SKU == "" {
		return nil, fmt.Errorf("%w: name y sku no pueden quedar vacíos", domain.ErrInvalidInput)
	}
	if in.WarehouseID != nil || in.LocationID != nil {
		if err := uc.checkPlacement(ctx, item.WarehouseID, item.LocationID); err != nil {
			return nil, err
		}
	}
	item.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	invalidate(ctx, uc.cache, ports.ScopeItems)
	return toItemResponse(item), nil
}

// Delete elimina un artículo sin movimientos en el libro.
func (uc *ItemUseCase) Delete(ctx context.Context, id string) error {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: artículo %s", domain.ErrNotFound, id)
	}
	used, err := uc.movements.ExistsForItem(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: el artículo tiene movimientos en el libro", domain.ErrConflict)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, uc.cache, ports.ScopeItems, ports.ScopeStock)
	return nil
}

// checkPlacement verifica que la bodega exista y que la ubicación habitual pertenezca a ella.
func (uc *ItemUseCase) checkPlacement(ctx context.Context, warehouseID string, locationID *string) error {
	if warehouseID == "" {
		return fmt.Errorf("%w: warehouse_id es requerido", domain.ErrInvalidInput)
	}
	warehouse, err := uc.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if locationID == nil {
		return nil
	}
	loc, err := uc.locations.GetByID(ctx, *locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, *locationID)
	}
	if loc.WarehouseID != warehouseID {
		return fmt.Errorf("%w: la ubicación %s no pertenece a la bodega %s", domain.ErrInvalidInput, loc.ID, warehouseID)
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toItemResponse(i *entity.Item) *dto.ItemResponse {
	if i == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:          i.ID,
		Name:        i.Name,
		SKU:         i.SKU,
		Barcode:     i.Barcode,
		Description: i.Description,
		Quantity:    i.Quantity,
		MinQuantity: i.MinQuantity,
		LowStock:    i.IsLowStock(),
		WarehouseID: i.WarehouseID,
		LocationID:  i.LocationID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
