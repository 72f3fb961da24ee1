//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// seed guarda value en (scope, key) con la versión vigente del ámbito.
func seed(t *testing.T, c *RedisCache, scope, key string, value any) {
	t.Helper()
	var discard any
	_, version, err := c.Get(context.Background(), scope, key, &discard)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), scope, key, version, value, time.Minute))
}

func TestRedisCache_InvalidarDescartaEntradasDelAmbito(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache(startRedis(t), "test")
	require.NoError(t, c.Ping(ctx))

	seed(t, c, "stock", "item:1", map[string]int{"qty": 10})
	seed(t, c, "warehouses", "list", []string{"central"})

	var got map[string]int
	ok, _, err := c.Get(ctx, "stock", "item:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, got["qty"])

	require.NoError(t, c.Invalidate(ctx, "stock"))
	ok, _, err = c.Get(ctx, "stock", "item:1", &got)
	require.NoError(t, err)
	assert.False(t, ok, "la entrada debe quedar invalidada")

	var list []string
	ok, _, err = c.Get(ctx, "warehouses", "list", &list)
	require.NoError(t, err)
	assert.True(t, ok, "otros ámbitos no se tocan")
}

// Un lector falla en caché, lee saldos viejos de la base y entretanto un movimiento confirma e
// invalida: lo que el lector guarde después no debe servirse.
func TestRedisCache_LecturaPreviaAInvalidacionNoSeSirve(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache(startRedis(t), "test")

	var got map[string]int
	ok, seen, err := c.Get(ctx, "stock", "item:1", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Invalidate(ctx, "stock"))
	require.NoError(t, c.Set(ctx, "stock", "item:1", seen, map[string]int{"qty": 10}, time.Minute))

	ok, _, err = c.Get(ctx, "stock", "item:1", &got)
	require.NoError(t, err)
	assert.False(t, ok, "el valor leído antes de invalidar no queda bajo la versión nueva")

	seed(t, c, "stock", "item:1", map[string]int{"qty": 7})
	ok, _, err = c.Get(ctx, "stock", "item:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got["qty"])
}
