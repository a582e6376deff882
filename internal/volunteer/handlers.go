package volunteer

import (
	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/middleware"
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// Apply POST /api/v1/volunteer — submit a volunteer application.
func (h *Handlers) Apply(c *fiber.Ctx) error {
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var app Application
	if err := c.BodyParser(&app); err != nil {
		return response.Error(c, "Invalid application payload", fiber.StatusBadRequest, nil)
	}

	if err := h.Service.Apply(c.UserContext(), userID, app, audit.MetaFromRequest(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Volunteer application submitted successfully", nil, nil)
}
