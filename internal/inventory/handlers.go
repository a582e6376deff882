package inventory

import (
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Available GET /api/v1/ngo/available-medicines — verified, unreserved stock.
// Query params: expiringSoon=true, location=<substring>.
func (h *Handlers) Available(c *fiber.Ctx) error {
	f := Filters{
		ExpiringSoon: c.QueryBool("expiringSoon"),
		Location:     c.Query("location"),
	}
	items, err := h.Service.Available(c.UserContext(), f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Available medicines fetched", fiber.Map{
		"medicines": items,
	}, fiber.Map{"count": len(items)})
}
