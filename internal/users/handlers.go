package users

import (
	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/middleware"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// View GET /api/v1/users/:id — self, or any user for admins.
func (h *Handlers) View(c *fiber.Ctx) error {
	caller, ok := sessionCaller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}

	u, err := h.Service.Get(c.UserContext(), caller, targetID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "User fetched", fiber.Map{"user": u}, nil)
}

// ChangeRole PATCH /api/v1/users/role — admin-only role assignment.
func (h *Handlers) ChangeRole(c *fiber.Ctx) error {
	caller, ok := sessionCaller(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var body struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.UserID == "" || body.Role == "" {
		return response.Error(c, "user_id and role are required", fiber.StatusBadRequest, nil)
	}
	targetID, err := uuid.Parse(body.UserID)
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}

	if err := h.Service.ChangeRole(c.UserContext(), caller.UserID, targetID, body.Role, audit.MetaFromRequest(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated", fiber.Map{
		"user_id": targetID.String(),
		"role":    body.Role,
	}, nil)
}

func sessionCaller(c *fiber.Ctx) (models.User, bool) {
	id, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		return models.User{}, false
	}
	return models.User{UserID: id, Role: middleware.GetUserRole(c)}, true
}
