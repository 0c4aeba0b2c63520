package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Nombres de campo según el tag json (o query) en los errores.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = fld.Tag.Get("query")
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindBody decodifica el JSON y valida los tags. Devuelve false si ya respondió 400.
func bindBody(c *fiber.Ctx, out any) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return false
	}
	return check(c, out)
}

// bindQuery igual que bindBody para los parámetros de la URL.
func bindQuery(c *fiber.Ctx, out any) bool {
	if err := c.QueryParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
		return false
	}
	return check(c, out)
}

func check(c *fiber.Ctx, out any) bool {
	err := validate.Struct(out)
	if err == nil {
		return true
	}
	fields := map[string]any{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Namespace()] = validationMessage(fe)
		}
	}
	_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: fields})
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "obligatorio"
	case "uuid":
		return "debe ser un UUID"
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "valor inválido"
	}
}
