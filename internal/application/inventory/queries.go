package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

const balancesTTL = 5 * time.Minute

// GetMovement obtiene un movimiento del libro por ID.
func (uc *RegisterMovementUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	mov, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	out := ToMovementResponse(mov)
	return &out, nil
}

// ListMovements lista el libro con filtros, del más reciente al más antiguo.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter, limit, offset int) (*dto.MovementListResponse, error) {
	list, err := uc.movements.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.movements.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// ItemBalances devuelve los saldos por ubicación de un artículo (lectura cacheada).
func (uc *RegisterMovementUseCase) ItemBalances(ctx context.Context, itemID string) (*dto.ItemBalancesResponse, error) {
	var out dto.ItemBalancesResponse
	ok, version, cacheErr := uc.cache.Get(ctx, ports.ScopeStock, "item:"+itemID, &out)
	if cacheErr == nil && ok {
		return &out, nil
	}
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: artículo %s", domain.ErrNotFound, itemID)
	}
	list, err := uc.stock.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out = dto.ItemBalancesResponse{ItemID: item.ID, Quantity: item.Quantity, Balances: toBalances(list)}
	if cacheErr != nil {
		return &out, nil
	}
	if err := uc.cache.Set(ctx, ports.ScopeStock, "item:"+itemID, version, out, balancesTTL); err != nil {
		uc.log.Warn().Err(err).Str("item_id", itemID).Msg("guardar saldos en caché")
	}
	return &out, nil
}

// LocationStock devuelve los saldos de todos los artículos presentes en una ubicación (lectura cacheada).
func (uc *RegisterMovementUseCase) LocationStock(ctx context.Context, locationID string) (*dto.LocationStockResponse, error) {
	var out dto.LocationStockResponse
	ok, version, cacheErr := uc.cache.Get(ctx, ports.ScopeStock, "location:"+locationID, &out)
	if cacheErr == nil && ok {
		return &out, nil
	}
	list, err := uc.stock.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	out = dto.LocationStockResponse{LocationID: locationID, Balances: toBalances(list)}
	if cacheErr != nil {
		return &out, nil
	}
	if err := uc.cache.Set(ctx, ports.ScopeStock, "location:"+locationID, version, out, balancesTTL); err != nil {
		uc.log.Warn().Err(err).Str("location_id", locationID).Msg("guardar saldos en caché")
	}
	return &out, nil
}

// ToMovementResponse convierte un movimiento a su DTO.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ItemID:         m.ItemID,
		MovementType:   m.Kind,
		Quantity:       m.Quantity,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		UserID:         m.UserID,
		Notes:          m.Notes,
		Timestamp:      m.CreatedAt,
	}
}

// ToApplyMovementResponse convierte el resultado de ApplyMovement a su DTO.
func ToApplyMovementResponse(res *MovementResult) *dto.ApplyMovementResponse {
	return &dto.ApplyMovementResponse{
		Movement:     ToMovementResponse(res.Movement),
		Balances:     toBalances(res.Balances),
		ItemQuantity: res.ItemQuantity,
		Replayed:     res.Replayed,
	}
}

func toBalances(list []*entity.StockBalance) []dto.BalanceResponse {
	out := make([]dto.BalanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.BalanceResponse{
			ItemID:     b.ItemID,
			LocationID: b.LocationID,
			Quantity:   b.Quantity,
			UpdatedAt:  b.UpdatedAt,
		})
	}
	return out
}

// sumBalances suma los saldos de una lista.
func sumBalances(list []*entity.StockBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range list {
		total = total.Add(b.Quantity)
	}
	return total
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string, any) (bool, ports.CacheVersion, error) {
	return false, 0, nil
}

func (noopCache) Set(context.Context, string, string, ports.CacheVersion, any, time.Duration) error {
	return nil
}

func (noopCache) Invalidate(context.Context, ...string) error { return nil }
