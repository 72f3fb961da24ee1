package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/ports"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/cache"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/events"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/xmlexport"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
	"github.com/jhoicas/Almacen-api/pkg/metrics"
)

// Nombres de los trabajos programados.
const (
	jobOutboxRelay  = "outbox-relay"
	jobOutboxClean  = "outbox-cleanup"
	jobReconcile    = "reconcile"
	jobTokenCleanup = "token-cleanup"
)

// repositories vista común de los repositorios de postgres y de memoria.
type repositories struct {
	warehouses repository.WarehouseRepository
	locations  repository.LocationRepository
	items      repository.ItemRepository
	stock      repository.StockRepository
	movements  repository.StockMovementRepository
	users      repository.UserRepository
	outbox     repository.OutboxRepository
	revoked    repository.RevokedTokenRepository
}

// application dependencias construidas a partir de la configuración.
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	pool      *pgxpool.Pool
	redis     *redis.Client
	publisher *events.KafkaPublisher

	authUC      *auth.AuthUseCase
	warehouseUC *usecase.WarehouseUseCase
	locationUC  *usecase.LocationUseCase
	itemUC      *usecase.ItemUseCase
	userUC      *usecase.UserUseCase
	ledger      *inventory.RegisterMovementUseCase
	reports     *inventory.ReportUseCase
	reconcile   *inventory.ReconcileUseCase
	relay       *events.Relay
}

// loadConfig lee y valida la configuración y arma el logger global.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuración inválida: %w", err)
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "dev-secret-no-usar-en-produccion"
		log.Warn().Msg("JWT_SECRET vacío: se usa un secreto de desarrollo")
	}
	return cfg, log, nil
}

// newApplication conecta almacenamiento, caché y publicador y construye los casos de uso.
func newApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	a := &application{cfg: cfg, log: log, metrics: metrics.New("almacen")}

	var (
		repos    repositories
		txRunner inventory.TxRunner
	)
	switch cfg.App.StorageDriver {
	case "memory":
		store := memory.NewStore()
		r := memory.NewRepositories(store)
		repos = repositories{r.Warehouses, r.Locations, r.Items, r.Stock, r.Movements, r.Users, r.Outbox, r.Revoked}
		txRunner = memory.NewTxRunner(store)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		dsn := cfg.DB.ConnectionString()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(dsn, log.Component("migrate")); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		a.pool = pool
		r := postgres.NewRepositories(pool)
		repos = repositories{r.Warehouses, r.Locations, r.Items, r.Stock, r.Movements, r.Users, r.Outbox, r.Revoked}
		txRunner = postgres.NewTxRunner(pool, log.Component("tx"))
		log.Info().Str("dsn", postgres.RedactDSN(dsn)).Msg("conectado a PostgreSQL")
	}

	a.redis = cache.NewRedisClient(cfg.Redis)
	if a.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no responde; las lecturas irán a la base")
		}
		cancel()
	}
	readCache := cache.New(a.redis, cfg.Redis.Prefix)

	ledgerLog := log.Component("ledger")
	a.ledger = inventory.NewRegisterMovementUseCase(txRunner, repos.items, repos.stock, repos.movements, inventory.Options{
		Cache:    readCache,
		Recorder: a.metrics,
		Topic:    cfg.Kafka.Topic,
		Logger:   &ledgerLog,
	})
	a.authUC = auth.NewAuthUseCase(repos.users, repos.revoked, auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL(),
		Issuer: cfg.JWT.Issuer,
	}, log.Component("auth"))
	a.warehouseUC = usecase.NewWarehouseUseCase(repos.warehouses, repos.locations, readCache)
	a.locationUC = usecase.NewLocationUseCase(repos.locations, repos.warehouses, repos.stock, repos.movements, readCache)
	a.itemUC = usecase.NewItemUseCase(txRunner, repos.items, repos.warehouses, repos.locations, repos.movements, a.ledger, readCache)
	a.userUC = usecase.NewUserUseCase(repos.users)
	a.reports = inventory.NewReportUseCase(repos.movements, repos.items, repos.locations, repos.users,
		infrapdf.NewMarotoRenderer(), xmlexport.NewExporter())
	a.reconcile = inventory.NewReconcileUseCase(txRunner, repos.stock, readCache, a.metrics, log.Component("reconcile"))

	eventsLog := log.Component("events")
	var sink ports.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.Kafka)
		sink = a.publisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos hacia Kafka")
	} else {
		sink = events.NewLogPublisher(eventsLog)
		log.Info().Msg("KAFKA_BROKERS vacío: los eventos solo se registran en el log")
	}
	guarded := events.NewBreakerPublisher(sink, events.DefaultBreakerConfig(), a.metrics, eventsLog)
	a.relay = events.NewRelay(repos.outbox, guarded, a.metrics, events.RelayConfig{
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
		Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	}, eventsLog)
	return a, nil
}

// routerDeps dependencias del router HTTP.
func (a *application) routerDeps() httpRouter.RouterDeps {
	return httpRouter.RouterDeps{
		AuthUC:      a.authUC,
		WarehouseUC: a.warehouseUC,
		LocationUC:  a.locationUC,
		ItemUC:      a.itemUC,
		UserUC:      a.userUC,
		Ledger:      a.ledger,
		Reports:     a.reports,
	}
}

// newScheduler registra los trabajos periódicos. Una expresión vacía deja el trabajo solo para ejecución manual.
func (a *application) newScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.log.Component("scheduler"))
	jobs := []struct {
		name     string
		schedule string
		run      scheduler.JobFunc
	}{
		{jobOutboxRelay, a.cfg.Jobs.OutboxSchedule, func(ctx context.Context) error {
			_, err := a.relay.RunOnce(ctx)
			return err
		}},
		{jobOutboxClean, a.cfg.Jobs.OutboxCleanSchedule, func(ctx context.Context) error {
			_, err := a.relay.Cleanup(ctx)
			return err
		}},
		{jobReconcile, a.cfg.Jobs.ReconcileSchedule, func(ctx context.Context) error {
			_, err := a.reconcile.Run(ctx, false)
			return err
		}},
		{jobTokenCleanup, a.cfg.Jobs.TokenCleanupSchedule, func(ctx context.Context) error {
			_, err := a.authUC.CleanupRevoked(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if err := s.Register(j.name, j.schedule, j.run); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// depCheck es una dependencia externa consultada por /ready. Solo las críticas vuelven el servicio no disponible.
type depCheck struct {
	name     string
	critical bool
	ping     func(ctx context.Context) error
}

// readyChecks arma las comprobaciones: Postgres es crítica; Redis solo es caché y se informa sin degradar.
func (a *application) readyChecks() []depCheck {
	var checks []depCheck
	if a.pool != nil {
		checks = append(checks, depCheck{name: "postgres", critical: true, ping: a.pool.Ping})
	}
	if a.redis != nil {
		rdb := a.redis
		checks = append(checks, depCheck{name: "redis", ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}
	return checks
}

// readiness ejecuta las comprobaciones. La respuesta solo lleva "ok" o "error"; el detalle va al log.
func readiness(ctx context.Context, storage string, checks []depCheck, log zerolog.Logger) (int, fiber.Map) {
	deps := map[string]string{"storage": storage}
	status, code := "ok", fiber.StatusOK
	for _, c := range checks {
		if err := c.ping(ctx); err != nil {
			log.Warn().Err(err).Str("dependency", c.name).Msg("dependencia no disponible")
			deps[c.name] = "error"
			if c.critical {
				status, code = "unavailable", fiber.StatusServiceUnavailable
			}
			continue
		}
		deps[c.name] = "ok"
	}
	return code, fiber.Map{"status": status, "deps": deps}
}

func (a *application) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("cerrar publicador Kafka")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
