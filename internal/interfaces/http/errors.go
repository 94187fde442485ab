package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var statusByKind = map[string]int{
	domain.KindValidation:        fiber.StatusBadRequest,
	domain.KindInsufficientStock: fiber.StatusUnprocessableEntity,
	domain.KindSequenceConflict:  fiber.StatusConflict,
	domain.KindLinkConflict:      fiber.StatusConflict,
	domain.KindEmailExists:       fiber.StatusConflict,
	domain.KindIntegrity:         fiber.StatusUnprocessableEntity,
	domain.KindTransient:         fiber.StatusServiceUnavailable,
	domain.KindNotFound:          fiber.StatusNotFound,
	domain.KindUnauthorized:      fiber.StatusUnauthorized,
	domain.KindForbidden:         fiber.StatusForbidden,
}

// writeError traduce err al código y status HTTP. Los errores internos se registran y
// se responden sin detalle.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	kind := domain.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: domain.KindInternal, Message: "error interno"})
	}
	body := dto.ErrorResponse{Code: kind, Message: err.Error(), Retryable: domain.IsRetryable(err)}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		body.Details = dto.StockShortfall{
			Branch: stockErr.Branch, ItemCode: stockErr.ItemCode, Variant: stockErr.Variant,
			Available: stockErr.Available, Requested: stockErr.Requested, Shortfall: stockErr.Shortfall(),
		}
	}
	if status >= fiber.StatusInternalServerError {
		log.Warn().Err(err).Str("path", c.Path()).Str("code", kind).Msg("error transitorio")
	}
	return c.Status(status).JSON(body)
}
