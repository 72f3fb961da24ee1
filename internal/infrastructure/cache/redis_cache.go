package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/pkg/config"
)

var _ ports.Cache = (*RedisCache)(nil)

const defaultPrefix = "almacen"

// RedisCache caché de lecturas sobre Redis.
// Cada ámbito tiene un contador de versión; invalidar un ámbito es incrementarlo,
// con lo que las entradas anteriores quedan huérfanas y expiran por TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisClient crea el cliente a partir de la configuración. Devuelve nil si REDIS_ADDR no está definido.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisCache envuelve un cliente ya creado.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// New devuelve la caché Redis si hay cliente, o una caché nula en caso contrario.
func New(client *redis.Client, prefix string) ports.Cache {
	if client == nil {
		return Noop{}
	}
	return NewRedisCache(client, prefix)
}

func (c *RedisCache) versionKey(scope string) string {
	return c.prefix + ":version:" + scope
}

func (c *RedisCache) entryKey(scope string, version int64, key string) string {
	return fmt.Sprintf("%s:%s:v%d:%s", c.prefix, scope, version, key)
}

func (c *RedisCache) version(ctx context.Context, scope string) (int64, error) {
	raw, err := c.client.Get(ctx, c.versionKey(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *RedisCache) Get(ctx context.Context, scope, key string, dest any) (bool, ports.CacheVersion, error) {
	v, err := c.version(ctx, scope)
	if err != nil {
		return false, 0, fmt.Errorf("versión de caché %s: %w", scope, err)
	}
	data, err := c.client.Get(ctx, c.entryKey(scope, v, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, ports.CacheVersion(v), nil
	}
	if err != nil {
		return false, ports.CacheVersion(v), fmt.Errorf("leer caché: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, ports.CacheVersion(v), fmt.Errorf("decodificar caché: %w", err)
	}
	return true, ports.CacheVersion(v), nil
}

// Set guarda bajo la versión que vio Get. Si el ámbito ya se invalidó no escribe nada; y si la
// invalidación llega entre la comprobación y la escritura, la entrada queda en la versión vieja,
// que nadie vuelve a leer.
func (c *RedisCache) Set(ctx context.Context, scope, key string, version ports.CacheVersion, value any, ttl time.Duration) error {
	current, err := c.version(ctx, scope)
	if err != nil {
		return fmt.Errorf("versión de caché %s: %w", scope, err)
	}
	if current != int64(version) {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("codificar caché: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(scope, int64(version), key), data, ttl).Err()
}

// Invalidate incrementa la versión de cada ámbito en un único pipeline.
func (c *RedisCache) Invalidate(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, s := range scopes {
			p.Incr(ctx, c.versionKey(s))
		}
		return nil
	})
	return err
}

// Ping comprueba la conexión (health check).
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop caché que nunca encuentra nada.
type Noop struct{}

func (Noop) Get(context.Context, string, string, any) (bool, ports.CacheVersion, error) {
	return false, 0, nil
}

func (Noop) Set(context.Context, string, string, ports.CacheVersion, any, time.Duration) error {
	return nil
}

func (Noop) Invalidate(context.Context, ...string) error { return nil }
