package reservations

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

// Reserve POST /api/v1/ngo/reservations — claim a verified donation.
func (h *Handlers) Reserve(c *fiber.Ctx) error {
	ngoID, ok := callerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var body struct {
		DonationID string `json:"donationId"`
	}
	if err := c.BodyParser(&body); err != nil || body.DonationID == "" {
		return response.Error(c, "donationId is required", fiber.StatusBadRequest, nil)
	}
	donationID, err := uuid.Parse(body.DonationID)
	if err != nil {
		return response.Error(c, "Invalid donationId", fiber.StatusBadRequest, nil)
	}

	if err := h.Service.Reserve(c.UserContext(), ngoID, donationID, audit.MetaFromRequest(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Donation reserved", fiber.Map{
		"donationId": donationID.String(),
		"reservedBy": ngoID.String(),
	}, nil)
}

// Release DELETE /api/v1/ngo/reservations/:donationId — give up own claim.
func (h *Handlers) Release(c *fiber.Ctx) error {
	ngoID, ok := callerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	donationID, err := uuid.Parse(c.Params("donationId"))
	if err != nil {
		return response.Error(c, "Invalid donationId", fiber.StatusBadRequest, nil)
	}

	if err := h.Service.Release(c.UserContext(), ngoID, donationID, audit.MetaFromRequest(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Reservation released", fiber.Map{
		"donationId": donationID.String(),
	}, nil)
}

func callerID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
