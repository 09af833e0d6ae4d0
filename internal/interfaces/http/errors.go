package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Fiskalizacija-api/internal/application/dto"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/rs/zerolog"
)

// errorStatus traduce los errores de dominio a código HTTP y código de error de la API.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrAlreadyFiscalized):
		return fiber.StatusConflict, "ALREADY_FISCALIZED"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTooOld):
		return fiber.StatusUnprocessableEntity, "TOO_OLD"
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity, "FISCAL_VALIDATION"
	case errors.Is(err, domain.ErrConfiguration):
		return fiber.StatusPreconditionFailed, "FISCAL_CONFIGURATION"
	case errors.Is(err, domain.ErrProtocol):
		return fiber.StatusUnprocessableEntity, "FISCAL_REJECTED"
	case errors.Is(err, domain.ErrTransport):
		return fiber.StatusBadGateway, "FISCAL_TRANSPORT"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("http: error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: msg})
}
