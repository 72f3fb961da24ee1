package http

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores nombran el campo como llega en el JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodifica el JSON y aplica las reglas `validate` del DTO.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest("INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(out); err != nil {
		return badRequest("VALIDATION", validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" es requerido")
		case "email":
			parts = append(parts, fe.Field()+" debe ser un email válido")
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s fuera de rango (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s debe ser uno de: %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fe.Field()+" inválido")
		}
	}
	return strings.Join(parts, "; ")
}

// pageParams lee limit/offset (default 20, máximo 100).
func pageParams(c *fiber.Ctx) (int, int) {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p.Limit, p.Offset
}

// timeParam acepta RFC3339 o YYYY-MM-DD. end=true lleva una fecha simple al final del día.
func timeParam(c *fiber.Ctx, name string, end bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, badRequest("VALIDATION", name+" debe ser RFC3339 o YYYY-MM-DD")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
