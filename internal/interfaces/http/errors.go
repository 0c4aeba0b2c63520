package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var (
		ve *domain.ValidationError
		ce *domain.ConsistencyError
		pf *domain.PartialFailure
	)
	switch {
	case errors.As(err, &pf):
		details := map[string]any{"step": pf.Step, "completed": pf.Completed}
		if pf.CompensationErr != nil {
			details["compensation_error"] = pf.CompensationErr.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PARTIAL_FAILURE", Message: err.Error(), Details: details})
	case errors.As(err, &ve):
		return c.Status(validationStatus(ve)).JSON(dto.ErrorResponse{Code: ve.Code, Message: ve.Error(), Details: validationDetails(ve)})
	case errors.As(err, &ce):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: domain.CodeMissingCatalog, Message: ce.Error(), Details: map[string]any{"movement_type": ce.Code}})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: domain.CodeValidation, Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func validationStatus(ve *domain.ValidationError) int {
	switch ve.Code {
	case domain.CodeInsufficientStock, domain.CodeInvalidState, domain.CodeAlreadyConverted, domain.CodeSerialUnavailable:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

func validationDetails(ve *domain.ValidationError) map[string]any {
	d := map[string]any{}
	if ve.Field != "" {
		d["field"] = ve.Field
	}
	if ve.Product != "" {
		d["product"] = ve.Product
	}
	if ve.Location != "" {
		d["location"] = ve.Location
	}
	if ve.Requested != nil {
		d["requested"] = ve.Requested.String()
	}
	if ve.Available != nil {
		d["available"] = ve.Available.String()
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
