package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	inv "github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// DefaultEventTopic tópico por defecto de los eventos del libro.
const DefaultEventTopic = "almacen.stock-movements"

// RegisterMovementUseCase aplica movimientos al libro de inventario.
// Ajuste de saldos, total del artículo, registro del movimiento y evento outbox van en una sola transacción.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	items     repository.ItemRepository
	stock     repository.StockRepository
	movements repository.StockMovementRepository
	cache     ports.Cache
	recorder  MovementRecorder
	topic     string
	log       zerolog.Logger
}

// Options dependencias opcionales del caso de uso.
type Options struct {
	Cache    ports.Cache
	Recorder MovementRecorder
	Topic    string
	Logger   *zerolog.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	items repository.ItemRepository,
	stock repository.StockRepository,
	movements repository.StockMovementRepository,
	opts Options,
) *RegisterMovementUseCase {
	topic := opts.Topic
	if topic == "" {
		topic = DefaultEventTopic
	}
	cache := opts.Cache
	if cache == nil {
		cache = noopCache{}
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		items:     items,
		stock:     stock,
		movements: movements,
		cache:     cache,
		recorder:  opts.Recorder,
		topic:     topic,
		log:       log,
	}
}

// MovementInput entrada de ApplyMovement.
type MovementInput struct {
	ItemID         string
	Kind           string
	Quantity       decimal.Decimal
	FromLocationID *string
	ToLocationID   *string
	UserID         string
	Notes          string
	IdempotencyKey string
}

// MovementResult movimiento persistido y los saldos resultantes de las ubicaciones tocadas.
type MovementResult struct {
	Movement     *entity.StockMovement
	Balances     []*entity.StockBalance
	ItemQuantity decimal.Decimal
	Replayed     bool
}

// ApplyMovement valida el movimiento, lo aplica de forma atómica y devuelve el registro con los saldos nuevos.
// Errores: domain.ErrInvalidInput, domain.ErrNotFound, domain.ErrInsufficientStock, domain.ErrConflict.
func (uc *RegisterMovementUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	plan, err := inv.PlanMovement(in.Kind, in.Quantity, in.FromLocationID, in.ToLocationID)
	if err != nil {
		uc.record(in.Kind, err)
		return nil, err
	}
	if strings.TrimSpace(in.ItemID) == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: item_id y usuario son requeridos", domain.ErrInvalidInput)
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		res, err := uc.replay(ctx, key, plan, in.ItemID)
		if err != nil || res != nil {
			return res, err
		}
	}

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		res, err := uc.apply(ctx, r, plan, in, key)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, domain.ErrDuplicate) {
			// Otra petición con la misma clave confirmó primero.
			res, rerr := uc.replay(ctx, key, plan, in.ItemID)
			if rerr != nil {
				return nil, rerr
			}
			if res != nil {
				return res, nil
			}
		}
		uc.record(plan.Kind, err)
		return nil, err
	}

	uc.record(plan.Kind, nil)
	if err := uc.cache.Invalidate(ctx, ports.ScopeItems, ports.ScopeStock, ports.ScopeMovements); err != nil {
		uc.log.Warn().Err(err).Msg("invalidar caché tras movimiento")
	}
	uc.log.Info().
		Str("movement_id", result.Movement.ID).
		Str("item_id", result.Movement.ItemID).
		Str("kind", result.Movement.Kind).
		Str("quantity", result.Movement.Quantity.String()).
		Str("user_id", result.Movement.UserID).
		Msg("movimiento aplicado")
	return result, nil
}

// ApplyInTx aplica un movimiento con los repositorios de una transacción abierta por el llamador
// (p. ej. el alta de un artículo con cantidad inicial). La invalidación de caché queda a cargo del llamador.
func (uc *RegisterMovementUseCase) ApplyInTx(ctx context.Context, r TxRepos, in MovementInput) (*MovementResult, error) {
	plan, err := inv.PlanMovement(in.Kind, in.Quantity, in.FromLocationID, in.ToLocationID)
	if err != nil {
		return nil, err
	}
	res, err := uc.apply(ctx, r, plan, in, "")
	uc.record(plan.Kind, err)
	return res, err
}

func (uc *RegisterMovementUseCase) apply(ctx context.Context, r TxRepos, plan *inv.MovementPlan, in MovementInput, key string) (*MovementResult, error) {
	// Primero la fila del artículo (mismo orden que la conciliación), luego los saldos.
	item, err := r.Items.GetForUpdate(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: artículo %s", domain.ErrNotFound, in.ItemID)
	}
	order := plan.LockOrder()
	for _, id := range order {
		loc, err := r.Locations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
		}
	}

	// Bloquea los saldos en orden fijo; a partir de aquí ningún otro movimiento los lee ni modifica.
	locked, err := r.Stock.LockForUpdate(ctx, item.ID, order)
	if err != nil {
		return nil, err
	}
	balances := make([]*entity.StockBalance, 0, len(plan.Legs))
	for _, leg := range plan.Legs {
		if cur, ok := locked[leg.LocationID]; ok && cur.Quantity.Add(leg.Delta).IsNegative() {
			return nil, fmt.Errorf("%w: disponible %s en %s, solicitado %s",
				domain.ErrInsufficientStock, cur.Quantity, leg.LocationID, leg.Delta.Abs())
		}
		bal, err := r.Stock.Apply(ctx, item.ID, leg.LocationID, leg.Delta)
		if err != nil {
			return nil, err
		}
		balances = append(balances, bal)
	}

	itemQty := item.Quantity
	if net := plan.NetDelta(); !net.IsZero() {
		if itemQty, err = r.Items.AdjustQuantity(ctx, item.ID, net); err != nil {
			return nil, err
		}
	}

	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		ItemID:         item.ID,
		Kind:           plan.Kind,
		Quantity:       plan.Quantity,
		FromLocationID: plan.From,
		ToLocationID:   plan.To,
		UserID:         in.UserID,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      time.Now().UTC(),
	}
	if key != "" {
		mov.IdempotencyKey = &key
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	payload := entity.MovementAppliedPayload{
		MovementID:     mov.ID,
		ItemID:         mov.ItemID,
		Kind:           mov.Kind,
		Quantity:       mov.Quantity.String(),
		FromLocationID: mov.FromLocationID,
		ToLocationID:   mov.ToLocationID,
		UserID:         mov.UserID,
		ItemQuantity:   itemQty.String(),
		Balances:       make(map[string]string, len(balances)),
		OccurredAt:     mov.CreatedAt,
	}
	for _, b := range balances {
		payload.Balances[b.LocationID] = b.Quantity.String()
	}
	event, err := entity.NewOutboxEvent(item.ID, entity.AggregateItem, entity.EventMovementApplied, uc.topic, payload)
	if err != nil {
		return nil, fmt.Errorf("serializar evento: %w", err)
	}
	if err := r.Outbox.Save(ctx, event); err != nil {
		return nil, err
	}

	return &MovementResult{Movement: mov, Balances: balances, ItemQuantity: itemQty}, nil
}

// replay devuelve el movimiento ya registrado con la clave de idempotencia, o nil si no existe.
func (uc *RegisterMovementUseCase) replay(ctx context.Context, key string, plan *inv.MovementPlan, itemID string) (*MovementResult, error) {
	mov, err := uc.movements.GetByIdempotencyKey(ctx, key)
	if err != nil || mov == nil {
		return nil, err
	}
	if mov.ItemID != itemID || mov.Kind != plan.Kind || !mov.Quantity.Equal(plan.Quantity) ||
		!sameLocation(mov.FromLocationID, plan.From) || !sameLocation(mov.ToLocationID, plan.To) {
		return nil, fmt.Errorf("%w: la clave de idempotencia ya se usó con otro movimiento", domain.ErrConflict)
	}
	res := &MovementResult{Movement: mov, Replayed: true}
	for _, leg := range plan.Legs {
		bal, err := uc.stock.Get(ctx, itemID, leg.LocationID)
		if err != nil {
			return nil, err
		}
		res.Balances = append(res.Balances, bal)
	}
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		res.ItemQuantity = item.Quantity
	}
	return res, nil
}

func (uc *RegisterMovementUseCase) record(kind string, err error) {
	if uc.recorder == nil {
		return
	}
	uc.recorder.RecordMovement(kind, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return "conflict"
	default:
		return "error"
	}
}

func sameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
