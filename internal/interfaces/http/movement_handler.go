package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// HeaderIdempotencyKey cabecera opcional para reintentos seguros de POST /api/stock-movements.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderLedgerDigest digest SHA-256 del XML canónico exportado.
const HeaderLedgerDigest = "X-Ledger-Digest"

// MovementHandler libro de movimientos de stock.
type MovementHandler struct {
	uc      *inventory.RegisterMovementUseCase
	reports *inventory.ReportUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.RegisterMovementUseCase, reports *inventory.ReportUseCase) *MovementHandler {
	return &MovementHandler{uc: uc, reports: reports}
}

// Create godoc
// @Summary      Registrar movimiento de stock
// @Description  inbound requiere to_location_id; outbound requiere from_location_id; move requiere ambos y distintos.
// @Description  Con Idempotency-Key, repetir la misma petición devuelve el movimiento original con 200.
// @Tags         stock-movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "Clave de idempotencia"
// @Param        body             body    dto.CreateMovementRequest  true   "item_id, movement_type, quantity, from/to"
// @Success      201   {object}  dto.ApplyMovementResponse
// @Success      200   {object}  dto.ApplyMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.ApplyMovement(c.UserContext(), inventory.MovementInput{
		ItemID:         in.ItemID,
		Kind:           in.MovementType,
		Quantity:       in.Quantity,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		UserID:         GetUserID(c),
		Notes:          in.Notes,
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(inventory.ToApplyMovementResponse(res))
}

// GetByID godoc
// @Summary      Obtener movimiento
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar movimientos (más recientes primero)
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        item_id        query  string  false  "Artículo"
// @Param        location_id    query  string  false  "Ubicación (origen o destino)"
// @Param        movement_type  query  string  false  "inbound | outbound | move"
// @Param        user_id        query  string  false  "Usuario"
// @Param        from           query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to             query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit          query  int     false  "Límite"  default(20)
// @Param        offset         query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	limit, offset := pageParams(c)
	out, err := h.uc.ListMovements(c.UserContext(), filter, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReportPDF godoc
// @Summary      Reporte PDF de movimientos
// @Tags         stock-movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        item_id        query  string  false  "Artículo"
// @Param        location_id    query  string  false  "Ubicación"
// @Param        movement_type  query  string  false  "Tipo"
// @Param        from           query  string  false  "Desde"
// @Param        to             query  string  false  "Hasta"
// @Success      200  {file}  binary
// @Router       /api/stock-movements/report.pdf [get]
func (h *MovementHandler) ReportPDF(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.reports.MovementsPDF(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, attachment("movimientos", "pdf"))
	return c.Send(doc)
}

// ExportXML godoc
// @Summary      Exportar el libro a XML canónico
// @Description  La cabecera X-Ledger-Digest lleva el SHA-256 (hex) del documento.
// @Tags         stock-movements
// @Security     Bearer
// @Produce      application/xml
// @Param        item_id        query  string  false  "Artículo"
// @Param        location_id    query  string  false  "Ubicación"
// @Param        movement_type  query  string  false  "Tipo"
// @Param        from           query  string  false  "Desde"
// @Param        to             query  string  false  "Hasta"
// @Success      200  {file}  binary
// @Router       /api/stock-movements/export.xml [get]
func (h *MovementHandler) ExportXML(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reports.MovementsXML(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, attachment("libro", "xml"))
	c.Set(HeaderLedgerDigest, out.Digest)
	return c.Send(out.Document)
}

func movementFilter(c *fiber.Ctx) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		ItemID:     strings.TrimSpace(c.Query("item_id")),
		LocationID: strings.TrimSpace(c.Query("location_id")),
		Kind:       strings.ToLower(strings.TrimSpace(c.Query("movement_type"))),
		UserID:     strings.TrimSpace(c.Query("user_id")),
	}
	var err error
	if f.From, err = timeParam(c, "from", false); err != nil {
		return f, err
	}
	if f.To, err = timeParam(c, "to", true); err != nil {
		return f, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, badRequest("VALIDATION", "to debe ser posterior a from")
	}
	return f, nil
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s-%s.%s"`, name, time.Now().UTC().Format("20060102-150405"), ext)
}
