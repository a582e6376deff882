package middleware

import (
	"vitamend-backend/internal/pkg/apperr"
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Tagged apperr errors map to their
// status; everything else is an opaque 500 logged with full context.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return response.Error(c, e.Message, e.Code, nil)
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		return response.FromError(c, err)
	}
	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("Unhandled error")
	return response.Error(c, "Internal server error", fiber.StatusInternalServerError, nil)
}
