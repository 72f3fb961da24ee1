package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// errBody error de cuerpo o de parámetros ya traducido a respuesta.
type errBody struct {
	status int
	code   string
	msg    string
}

func (e *errBody) Error() string { return e.msg }

func badRequest(code, msg string) error {
	return &errBody{status: fiber.StatusBadRequest, code: code, msg: msg}
}

// writeError traduce errores de dominio a {code, message}. Los errores no previstos se loguean
// y se responden como INTERNAL sin exponer el detalle.
func writeError(c *fiber.Ctx, err error) error {
	var eb *errBody
	switch {
	case errors.As(err, &eb):
		return respondError(c, eb.status, eb.code, eb.msg)
	case errors.Is(err, domain.ErrInsufficientStock):
		return respondError(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, domain.ErrQuantityReadOnly):
		return respondError(c, fiber.StatusBadRequest, "QUANTITY_READ_ONLY", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return respondError(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return respondError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return respondError(c, fiber.StatusConflict, "EMAIL_EXISTS", "el email ya está registrado")
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return respondError(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales o token inválidos")
	case errors.Is(err, domain.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	}
	log.Error().Err(err).
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("error no controlado")
	return respondError(c, fiber.StatusInternalServerError, "INTERNAL", "error interno")
}

func respondError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
