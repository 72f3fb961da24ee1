package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Almacen-api/internal/application/ports"
)

const listTTL = 2 * time.Minute

type noopCache struct{}

func (noopCache) Get(context.Context, string, string, any) (bool, ports.CacheVersion, error) {
	return false, 0, nil
}

func (noopCache) Set(context.Context, string, string, ports.CacheVersion, any, time.Duration) error {
	return nil
}

func (noopCache) Invalidate(context.Context, ...string) error { return nil }

func orNoop(c ports.Cache) ports.Cache {
	if c == nil {
		return noopCache{}
	}
	return c
}

// invalidate descarta los ámbitos tras una mutación confirmada. Un fallo de caché no revierte la mutación.
func invalidate(ctx context.Context, c ports.Cache, scopes ...string) {
	if err := c.Invalidate(ctx, scopes...); err != nil {
		log.Warn().Err(err).Strs("scopes", scopes).Msg("invalidar caché")
	}
}
