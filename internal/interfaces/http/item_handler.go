package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ItemHandler maneja las peticiones HTTP de artículos (/api/inventory).
type ItemHandler struct {
	uc     *usecase.ItemUseCase
	ledger *inventory.RegisterMovementUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase, ledger *inventory.RegisterMovementUseCase) *ItemHandler {
	return &ItemHandler{uc: uc, ledger: ledger}
}

// Create godoc
// @Summary      Crear artículo
// @Description  Una cantidad inicial > 0 exige location_id y se registra como movimiento de entrada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del artículo"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener artículo por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByCode godoc
// @Summary      Buscar artículo por código de barras o SKU
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de barras o SKU"
// @Success      200   {object}  dto.ItemResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/barcode/{code} [get]
func (h *ItemHandler) GetByCode(c *fiber.Ctx) error {
	out, err := h.uc.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar artículos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        q             query  string  false  "Búsqueda por nombre, SKU o código de barras"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        low_stock     query  bool    false  "Solo artículos en o por debajo del mínimo"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ItemListResponse
// @Router       /api/inventory [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	filter := repository.ItemFilter{
		Search:      c.Query("q"),
		WarehouseID: c.Query("warehouse_id"),
		LowStock:    c.QueryBool("low_stock", false),
	}
	out, err := h.uc.List(c.UserContext(), filter, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Artículos con stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ItemListResponse
// @Router       /api/inventory/low-stock [get]
func (h *ItemHandler) LowStock(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.LowStock(c.UserContext(), c.Query("warehouse_id"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Balances godoc
// @Summary      Saldos por ubicación de un artículo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del artículo"
// @Success      200  {object}  dto.ItemBalancesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/balances [get]
func (h *ItemHandler) Balances(c *fiber.Ctx) error {
	out, err := h.ledger.ItemBalances(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar artículo (parcial)
// @Description  La cantidad es de solo lectura: solo cambia mediante movimientos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del artículo"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar artículo
// @Description  Falla con 409 si el artículo tiene movimientos.
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del artículo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
