//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Almacen-api/pkg/config"
)

// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/...

type pgFixture struct {
	ctx    context.Context
	repos  *postgres.Repositories
	uc     *inventory.RegisterMovementUseCase
	userID string
	itemID string
	locA   string
	locB   string
}

func startPostgres(t *testing.T) *pgFixture {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("almacen"),
		tcpostgres.WithUsername("almacen"),
		tcpostgres.WithPassword("almacen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn, zerolog.Nop()))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repos := postgres.NewRepositories(pool)
	runner := postgres.NewTxRunner(pool, zerolog.Nop())
	uc := inventory.NewRegisterMovementUseCase(runner, repos.Items, repos.Stock, repos.Movements, inventory.Options{})

	f := &pgFixture{
		ctx: ctx, repos: repos, uc: uc,
		userID: uuid.NewString(), itemID: uuid.NewString(), locA: uuid.NewString(), locB: uuid.NewString(),
	}
	now := time.Now().UTC()
	whID := uuid.NewString()
	require.NoError(t, repos.Warehouses.Create(ctx, &entity.Warehouse{ID: whID, Name: "Central", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Locations.Create(ctx, &entity.StorageLocation{ID: f.locA, WarehouseID: whID, Name: "A", Code: "A-01", Type: entity.LocationTypeShelf, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Locations.Create(ctx, &entity.StorageLocation{ID: f.locB, WarehouseID: whID, Name: "B", Code: "B-01", Type: entity.LocationTypeShelf, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Items.Create(ctx, &entity.Item{ID: f.itemID, Name: "Tornillo", SKU: "TOR-001", WarehouseID: whID, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repos.Users.Create(ctx, &entity.User{ID: f.userID, Email: "bodega@example.com", PasswordHash: "x", Role: entity.RoleBodeguero, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now}))
	return f
}

func (f *pgFixture) move(kind string, n int64, from, to *string) (*inventory.MovementResult, error) {
	return f.uc.ApplyMovement(f.ctx, inventory.MovementInput{
		ItemID: f.itemID, Kind: kind, Quantity: decimal.NewFromInt(n), FromLocationID: from, ToLocationID: to, UserID: f.userID,
	})
}

func TestPostgres_SecuenciaDeReferencia(t *testing.T) {
	f := startPostgres(t)

	_, err := f.move(entity.MovementInbound, 10, nil, &f.locA)
	require.NoError(t, err)
	res, err := f.move(entity.MovementInbound, 5, nil, &f.locA)
	require.NoError(t, err)
	assert.True(t, res.ItemQuantity.Equal(decimal.NewFromInt(15)))

	_, err = f.move(entity.MovementOutbound, 20, &f.locA, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.move(entity.MovementMove, 15, &f.locA, &f.locB)
	require.NoError(t, err)

	a, err := f.repos.Stock.Get(f.ctx, f.itemID, f.locA)
	require.NoError(t, err)
	b, err := f.repos.Stock.Get(f.ctx, f.itemID, f.locB)
	require.NoError(t, err)
	assert.True(t, a.Quantity.IsZero())
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(15)))

	found, err := f.repos.Stock.Discrepancies(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, found)

	events, err := f.repos.Outbox.FindUnpublished(f.ctx, 10, 100)
	require.NoError(t, err)
	assert.Len(t, events, 3, "un evento por movimiento confirmado")
}

// 20 salidas concurrentes de 1 contra 10 disponibles: exactamente 10 confirman.
func TestPostgres_SalidasConcurrentesNoDejanSaldoNegativo(t *testing.T) {
	f := startPostgres(t)
	_, err := f.move(entity.MovementInbound, 10, nil, &f.locA)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.move(entity.MovementOutbound, 1, &f.locA, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, fail)
	item, err := f.repos.Items.GetByID(f.ctx, f.itemID)
	require.NoError(t, err)
	assert.True(t, item.Quantity.IsZero())
}

func TestPostgres_ClaveDeIdempotenciaUnica(t *testing.T) {
	f := startPostgres(t)
	in := inventory.MovementInput{
		ItemID: f.itemID, Kind: entity.MovementInbound, Quantity: decimal.NewFromInt(3),
		ToLocationID: &f.locA, UserID: f.userID, IdempotencyKey: "recepcion-42",
	}
	first, err := f.uc.ApplyMovement(f.ctx, in)
	require.NoError(t, err)
	again, err := f.uc.ApplyMovement(f.ctx, in)
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.Movement.ID, again.Movement.ID)
	item, err := f.repos.Items.GetByID(f.ctx, f.itemID)
	require.NoError(t, err)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(3)))
}

// Los ids que no son UUID (p. ej. enteros de clientes antiguos) se tratan como inexistentes.
func TestPostgres_IDNoUUIDEsNoEncontrado(t *testing.T) {
	f := startPostgres(t)

	_, err := f.uc.ApplyMovement(f.ctx, inventory.MovementInput{
		ItemID: "1", Kind: entity.MovementInbound, Quantity: decimal.NewFromInt(1), ToLocationID: &f.locA, UserID: f.userID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bad := "42"
	_, err = f.move(entity.MovementInbound, 1, nil, &bad)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	item, err := f.repos.Items.GetByID(f.ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, item)
	loc, err := f.repos.Locations.GetByID(f.ctx, "7")
	require.NoError(t, err)
	assert.Nil(t, loc)

	list, err := f.repos.Movements.List(f.ctx, repository.MovementFilter{ItemID: "1"}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	used, err := f.repos.Movements.ExistsForLocation(f.ctx, "7")
	require.NoError(t, err)
	assert.False(t, used)
}
