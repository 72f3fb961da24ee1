package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// DiscrepancyObserver recibe el número de artículos desalineados tras cada conciliación (métrica).
type DiscrepancyObserver interface {
	SetStockDiscrepancies(n int)
}

// ReconcileUseCase verifica que el total de cada artículo sea igual a la suma de sus saldos
// y, si se pide, corrige el total a partir de los saldos.
type ReconcileUseCase struct {
	txRunner TxRunner
	stock    repository.StockRepository
	cache    ports.Cache
	observer DiscrepancyObserver
	log      zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso. cache y observer pueden ser nil.
func NewReconcileUseCase(txRunner TxRunner, stock repository.StockRepository, cache ports.Cache, observer DiscrepancyObserver, log zerolog.Logger) *ReconcileUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &ReconcileUseCase{txRunner: txRunner, stock: stock, cache: cache, observer: observer, log: log}
}

// Run busca discrepancias. Con fix=true reescribe el total de los artículos afectados dentro de una transacción.
func (uc *ReconcileUseCase) Run(ctx context.Context, fix bool) (*dto.ReconcileResponse, error) {
	found, err := uc.stock.Discrepancies(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconcileResponse{
		Checked:       time.Now().UTC(),
		Discrepancies: make([]dto.DiscrepancyResponse, 0, len(found)),
	}
	for _, d := range found {
		uc.log.Warn().
			Str("item_id", d.ItemID).
			Str("sku", d.SKU).
			Str("item_quantity", d.ItemQuantity.String()).
			Str("balances_total", d.BalancesTotal.String()).
			Msg("total del artículo no coincide con sus saldos")
		out.Discrepancies = append(out.Discrepancies, dto.DiscrepancyResponse{
			ItemID:        d.ItemID,
			SKU:           d.SKU,
			ItemQuantity:  d.ItemQuantity,
			BalancesTotal: d.BalancesTotal,
		})
	}

	if fix && len(found) > 0 {
		if err := uc.fix(ctx, found); err != nil {
			return nil, err
		}
		out.Fixed = true
		if err := uc.cache.Invalidate(ctx, ports.ScopeItems, ports.ScopeStock); err != nil {
			uc.log.Warn().Err(err).Msg("invalidar caché tras conciliación")
		}
	}
	if uc.observer != nil {
		remaining := len(found)
		if out.Fixed {
			remaining = 0
		}
		uc.observer.SetStockDiscrepancies(remaining)
	}
	return out, nil
}

func (uc *ReconcileUseCase) fix(ctx context.Context, found []entity.StockDiscrepancy) error {
	return uc.txRunner.Run(ctx, func(r TxRepos) error {
		for _, d := range found {
			// Con la fila del artículo bloqueada ningún movimiento puede crear ni cambiar saldos;
			// se listan de nuevo después del bloqueo.
			item, err := r.Items.GetForUpdate(ctx, d.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}
			balances, err := r.Stock.ListByItem(ctx, d.ItemID)
			if err != nil {
				return err
			}
			locIDs := make([]string, 0, len(balances))
			for _, b := range balances {
				locIDs = append(locIDs, b.LocationID)
			}
			locked, err := r.Stock.LockForUpdate(ctx, d.ItemID, sortedCopy(locIDs))
			if err != nil {
				return err
			}
			total := sumBalances(mapValues(locked))
			if err := r.Items.SetQuantity(ctx, d.ItemID, total); err != nil {
				return err
			}
			uc.log.Info().Str("item_id", d.ItemID).Str("quantity", total.String()).Msg("total del artículo corregido")
		}
		return nil
	})
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func mapValues(m map[string]*entity.StockBalance) []*entity.StockBalance {
	out := make([]*entity.StockBalance, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
