package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/domain"
)

// errorMapping traduce un sentinel de dominio a status HTTP y código de error.
type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrStorage envuelve errores del driver y se evalúa antes del 500 genérico.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrNoChange, fiber.StatusConflict, "NO_CHANGE"},
	{domain.ErrIllegalTransition, fiber.StatusConflict, "ILLEGAL_TRANSITION"},
	{domain.ErrDuplicateReturn, fiber.StatusConflict, "DUPLICATE_RETURN"},
	{domain.ErrVariantArchived, fiber.StatusConflict, "VARIANT_ARCHIVED"},
	{domain.ErrAlreadyRestocked, fiber.StatusConflict, "ALREADY_RESTOCKED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrReturnWindowExpired, fiber.StatusUnprocessableEntity, "RETURN_WINDOW_EXPIRED"},
	{domain.ErrStorage, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
}

// writeError responde con el status y código que corresponden al error de dominio.
// Los errores no clasificados se devuelven como 500 sin exponer el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := err.Error()
			if m.status == fiber.StatusServiceUnavailable {
				msg = "almacenamiento no disponible, reintente"
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
