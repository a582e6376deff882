package donations

import (
	"time"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/middleware"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
	Audit   *audit.Service
}

// Submit POST /api/v1/donations — create a pending donation from the payload.
func (h *Handlers) Submit(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var in SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid donation payload", fiber.StatusBadRequest, nil)
	}

	d, err := h.Service.Submit(c.UserContext(), *actor, in, audit.MetaFromRequest(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Donation submitted successfully", fiber.Map{
		"donationId": d.DonationID.String(),
	}, nil)
}

// ListOwn GET /api/v1/donations — the caller's donations, newest first.
func (h *Handlers) ListOwn(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	status := c.Query("status")
	if status != "" && !validStatus(status) {
		return response.Error(c, "Invalid status filter", fiber.StatusBadRequest, nil)
	}
	page := c.QueryInt("page", 1)

	out, err := h.Service.ListByDonor(c.UserContext(), actor.ID, status, page)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Donations fetched", fiber.Map{"donations": out}, fiber.Map{
		"page":     page,
		"pageSize": PageSize,
	})
}

// Verify POST /api/v1/donations/:id/verify — reviewer decision.
func (h *Handlers) Verify(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	donationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid donation id", fiber.StatusBadRequest, nil)
	}

	var body struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Decision is required", fiber.StatusBadRequest, nil)
	}

	d, err := h.Service.Verify(c.UserContext(), *actor, donationID, body.Decision, body.Notes, audit.MetaFromRequest(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Donation "+d.Status, fiber.Map{"donation": d}, nil)
}

// Transition POST /api/v1/donations/:id/transition — collected, distributed
// or recalled, depending on the "to" field.
func (h *Handlers) Transition(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	donationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid donation id", fiber.StatusBadRequest, nil)
	}

	var body struct {
		To         string     `json:"to"`
		PickupDate *time.Time `json:"pickupDate"`
		NgoID      string     `json:"ngoId"`
		Reason     string     `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Target state is required", fiber.StatusBadRequest, nil)
	}

	meta := audit.MetaFromRequest(c)
	var d *models.Donation
	switch body.To {
	case models.StatusCollected:
		if body.PickupDate == nil {
			return response.Error(c, "pickupDate is required to mark a donation collected", fiber.StatusBadRequest, nil)
		}
		var collectingNGO *uuid.UUID
		if body.NgoID != "" {
			ngo, perr := uuid.Parse(body.NgoID)
			if perr != nil {
				return response.Error(c, "Invalid ngoId", fiber.StatusBadRequest, nil)
			}
			collectingNGO = &ngo
		}
		d, err = h.Service.MarkCollected(c.UserContext(), *actor, donationID, *body.PickupDate, collectingNGO, meta)
	case models.StatusDistributed:
		d, err = h.Service.MarkDistributed(c.UserContext(), *actor, donationID, meta)
	case models.StatusRecalled:
		// Recall is admin-only; the route gate only requires reviewer.
		if !constants.AllowedRole(constants.RecallDonation, actor.Role) {
			if h.Audit != nil {
				h.Audit.LogAccessDenied(c, actor.ID.String(), constants.RecallDonation)
			}
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		d, err = h.Service.Recall(c.UserContext(), *actor, donationID, body.Reason, meta)
	default:
		return response.Error(c, "Target state must be collected, distributed or recalled", fiber.StatusBadRequest, nil)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Donation "+d.Status, fiber.Map{"donation": d}, nil)
}

func validStatus(s string) bool {
	switch s {
	case models.StatusPending, models.StatusVerified, models.StatusRejected,
		models.StatusCollected, models.StatusDistributed, models.StatusRecalled:
		return true
	}
	return false
}

func getActor(c *fiber.Ctx) *Actor {
	u := middleware.GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	idStr, _ := m["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	role, _ := m["role"].(string)
	return &Actor{ID: id, Role: role}
}
