package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
)

// LocationHandler ubicaciones de almacenamiento y su stock.
type LocationHandler struct {
	uc     *usecase.LocationUseCase
	ledger *inventory.RegisterMovementUseCase
}

func NewLocationHandler(uc *usecase.LocationUseCase, ledger *inventory.RegisterMovementUseCase) *LocationHandler {
	return &LocationHandler{uc: uc, ledger: ledger}
}

// Create godoc
// @Summary      Crear ubicación en una bodega
// @Tags         locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la bodega"
// @Param        body  body  dto.CreateLocationRequest  true  "name, code, type, capacity"
// @Success      201   {object}  dto.LocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/locations [post]
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListByWarehouse godoc
// @Summary      Listar ubicaciones de una bodega
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la bodega"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.LocationListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/locations [get]
func (h *LocationHandler) ListByWarehouse(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.ListByWarehouse(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ubicación
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id} [get]
func (h *LocationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar ubicación (parcial)
// @Tags         locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la ubicación"
// @Param        body  body  dto.UpdateLocationRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LocationResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/locations/{id} [put]
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateLocationRequest
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
// @Summary      Eliminar ubicación
// @Description  Falla con 409 si tiene stock o movimientos.
// @Tags         locations
// @Security     Bearer
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/locations/{id} [delete]
func (h *LocationHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stock godoc
// @Summary      Saldos de todos los artículos en una ubicación
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/stock [get]
func (h *LocationHandler) Stock(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.uc.GetByID(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.LocationStock(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
