package ports

import (
	"context"
	"time"
)

// Ámbitos de caché invalidados tras una mutación confirmada.
const (
	ScopeWarehouses = "warehouses"
	ScopeLocations  = "locations"
	ScopeItems      = "items"
	ScopeStock      = "stock"
	ScopeMovements  = "movements"
)

// CacheVersion versión de un ámbito vista por Get. Set guarda bajo esa versión, así un valor
// leído de la base antes de una invalidación nunca queda servido después de ella.
type CacheVersion int64

// Cache define el puerto de caché de lecturas.
// Las entradas se agrupan por ámbito; Invalidate descarta todas las entradas de los ámbitos indicados.
type Cache interface {
	// Get deserializa en dest la entrada (scope, key). Devuelve false si no existe, junto con la
	// versión del ámbito a usar en el Set posterior.
	Get(ctx context.Context, scope, key string, dest any) (bool, CacheVersion, error)
	Set(ctx context.Context, scope, key string, version CacheVersion, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, scopes ...string) error
}
