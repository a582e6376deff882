package audit

import (
	"time"

	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Query GET /api/v1/audit — admin-only audit trail with filters.
// Params: actorId, action, resource, start, end (RFC3339), limit, offset.
func (h *Handlers) Query(c *fiber.Ctx) error {
	f := QueryFilters{
		ActorID:  c.Query("actorId"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.Error(c, "Invalid start timestamp", fiber.StatusBadRequest, nil)
		}
		f.Start = &t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.Error(c, "Invalid end timestamp", fiber.StatusBadRequest, nil)
		}
		f.End = &t
	}

	limit := c.QueryInt("limit", defaultQueryLimit)
	offset := c.QueryInt("offset", 0)

	entries, err := h.Service.Query(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.Error(c, "Internal server error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Audit logs fetched", fiber.Map{"entries": entries}, fiber.Map{
		"limit":  limit,
		"offset": offset,
		"count":  len(entries),
	})
}
