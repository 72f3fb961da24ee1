// Package memory implementa los repositorios sobre un almacén en memoria (STORAGE_DRIVER=memory).
// Una transacción toma el candado del almacén, trabaja sobre una copia y la publica al confirmar.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

type balanceKey struct {
	itemID     string
	locationID string
}

type revokedToken struct {
	userID    string
	expiresAt time.Time
}

type state struct {
	warehouses map[string]entity.Warehouse
	locations  map[string]entity.StorageLocation
	items      map[string]entity.Item
	balances   map[balanceKey]entity.StockBalance
	movements  []entity.StockMovement
	users      map[string]entity.User
	outbox     []entity.OutboxEvent
	revoked    map[string]revokedToken
}

func newState() *state {
	return &state{
		warehouses: map[string]entity.Warehouse{},
		locations:  map[string]entity.StorageLocation{},
		items:      map[string]entity.Item{},
		balances:   map[balanceKey]entity.StockBalance{},
		users:      map[string]entity.User{},
		revoked:    map[string]revokedToken{},
	}
}

func (s *state) clone() *state {
	c := &state{
		warehouses: make(map[string]entity.Warehouse, len(s.warehouses)),
		locations:  make(map[string]entity.StorageLocation, len(s.locations)),
		items:      make(map[string]entity.Item, len(s.items)),
		balances:   make(map[balanceKey]entity.StockBalance, len(s.balances)),
		movements:  append([]entity.StockMovement(nil), s.movements...),
		users:      make(map[string]entity.User, len(s.users)),
		outbox:     append([]entity.OutboxEvent(nil), s.outbox...),
		revoked:    make(map[string]revokedToken, len(s.revoked)),
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.revoked {
		c.revoked[k] = v
	}
	return c
}

// Store almacén en memoria compartido por todos los repositorios.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// session acceso al estado: directo bajo candado, o sobre la copia de una transacción abierta.
type session struct {
	store *Store
	tx    *state
}

func (s *session) do(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.st)
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner serializa las transacciones sobre el almacén.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sess := &session{store: r.store, tx: r.store.st.clone()}
	if err := fn(inventory.TxRepos{
		Items:     &ItemRepository{s: sess},
		Locations: &LocationRepository{s: sess},
		Stock:     &StockRepository{s: sess},
		Movements: &StockMovementRepository{s: sess},
		Outbox:    &OutboxRepository{s: sess},
	}); err != nil {
		return err
	}
	r.store.st = sess.tx
	return nil
}

// Repositories agrupa los repositorios fuera de transacción.
type Repositories struct {
	Warehouses *WarehouseRepository
	Locations  *LocationRepository
	Items      *ItemRepository
	Stock      *StockRepository
	Movements  *StockMovementRepository
	Users      *UserRepository
	Outbox     *OutboxRepository
	Revoked    *RevokedTokenRepository
}

// NewRepositories construye todos los repositorios sobre el almacén.
func NewRepositories(store *Store) Repositories {
	s := &session{store: store}
	return Repositories{
		Warehouses: &WarehouseRepository{s: s},
		Locations:  &LocationRepository{s: s},
		Items:      &ItemRepository{s: s},
		Stock:      &StockRepository{s: s},
		Movements:  &StockMovementRepository{s: s},
		Users:      &UserRepository{s: s},
		Outbox:     &OutboxRepository{s: s},
		Revoked:    &RevokedTokenRepository{s: s},
	}
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
