package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	WarehouseUC *usecase.WarehouseUseCase
	LocationUC  *usecase.LocationUseCase
	ItemUC      *usecase.ItemUseCase
	UserUC      *usecase.UserUseCase
	Ledger      *inventory.RegisterMovementUseCase
	Reports     *inventory.ReportUseCase
	// Authenticator por defecto AuthUC; se reemplaza en tests.
	Authenticator SessionAuthenticator
}

// Router registra las rutas de la API bajo /api.
func Router(app *fiber.App, deps RouterDeps) {
	authn := deps.Authenticator
	if authn == nil {
		authn = deps.AuthUC
	}
	writers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	adminOnly := RequireRole(entity.RoleAdmin)

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(authn))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	// Bodegas y sus ubicaciones
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	locationHandler := NewLocationHandler(deps.LocationUC, deps.Ledger)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", writers, warehouseHandler.Create)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", writers, warehouseHandler.Update)
	warehouses.Delete("/:id", adminOnly, warehouseHandler.Delete)
	warehouses.Get("/:id/locations", locationHandler.ListByWarehouse)
	warehouses.Post("/:id/locations", writers, locationHandler.Create)

	locations := protected.Group("/locations")
	locations.Get("/:id", locationHandler.GetByID)
	locations.Get("/:id/stock", locationHandler.Stock)
	locations.Put("/:id", writers, locationHandler.Update)
	locations.Delete("/:id", adminOnly, locationHandler.Delete)

	// Artículos (las rutas fijas antes de /:id)
	itemHandler := NewItemHandler(deps.ItemUC, deps.Ledger)
	items := protected.Group("/inventory")
	items.Get("/", itemHandler.List)
	items.Post("/", writers, itemHandler.Create)
	items.Get("/low-stock", itemHandler.LowStock)
	items.Get("/barcode/:code", itemHandler.GetByCode)
	items.Get("/:id", itemHandler.GetByID)
	items.Get("/:id/balances", itemHandler.Balances)
	items.Put("/:id", writers, itemHandler.Update)
	items.Delete("/:id", adminOnly, itemHandler.Delete)

	// Libro de movimientos
	movementHandler := NewMovementHandler(deps.Ledger, deps.Reports)
	movements := protected.Group("/stock-movements")
	movements.Get("/", movementHandler.List)
	movements.Post("/", writers, movementHandler.Create)
	movements.Get("/report.pdf", movementHandler.ReportPDF)
	movements.Get("/export.xml", movementHandler.ExportXML)
	movements.Get("/:id", movementHandler.GetByID)

	// Usuarios (admin)
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users", adminOnly)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
}
