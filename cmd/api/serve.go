package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	_ "github.com/jhoicas/Almacen-api/docs"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
)

var withJobs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta la API HTTP (y los trabajos programados)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withJobs, "jobs", true, "ejecutar los trabajos programados en este proceso")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + httpRouter.HeaderIdempotencyKey,
		ExposeHeaders: httpRouter.HeaderLedgerDigest,
	}))
	app.Use(httpRouter.AccessLog(log.Component("http")))
	app.Use(httpRouter.Metrics(a.metrics))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		checkCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		code, body := readiness(checkCtx, cfg.App.StorageDriver, a.readyChecks(), a.log.Component("ready"))
		return c.Status(code).JSON(body)
	})
	app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

	httpRouter.Router(app, a.routerDeps())

	if withJobs {
		sched, err := a.newScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.HTTP.Addr()
		log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("apagando servidor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("servidor detenido")
	return nil
}
