package donations

import (
	"context"
	"time"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// defaultCreditCap bounds credits earned per line-item.
const defaultCreditCap = 100

// Actor is the authenticated principal performing a lifecycle operation.
// Role is re-checked here even though routes are gated, so the engine stays
// the single authority on who may move a donation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// Service is the lifecycle engine: the only writer of donation status,
// reservation state excepted (see the reservations package, which goes
// through the same store primitive).
type Service struct {
	Store     *Store
	Audit     *audit.Service
	CreditCap int
}

func (s *Service) creditCap() int {
	if s.CreditCap > 0 {
		return s.CreditCap
	}
	return defaultCreditCap
}

// SubmitInput is a donation payload.
type SubmitInput struct {
	Medicines     []MedicineInput `json:"medicines"`
	PickupAddress string          `json:"pickupAddress"`
	PickupDate    *time.Time      `json:"pickupDate"`
	DedupKey      string          `json:"dedupKey"`
}

// Submit validates the payload and creates the donation in pending state.
// A repeated submit with the same dedup key returns the already-stored
// donation instead of creating a second one.
func (s *Service) Submit(ctx context.Context, actor Actor, in SubmitInput, meta audit.Meta) (*models.Donation, error) {
	now := time.Now().UTC()
	if err := validateMedicines(in.Medicines, now); err != nil {
		return nil, err
	}

	if in.DedupKey != "" {
		existing, err := s.Store.FindByDedupKey(ctx, actor.ID, in.DedupKey)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	d := &models.Donation{
		DonorID:       actor.ID,
		Status:        models.StatusPending,
		PickupAddress: in.PickupAddress,
		PickupDate:    in.PickupDate,
	}
	if in.DedupKey != "" {
		key := in.DedupKey
		d.DedupKey = &key
	}
	for _, m := range in.Medicines {
		d.Medicines = append(d.Medicines, models.Medicine{
			Name:        m.Name,
			Quantity:    m.Quantity,
			ExpiryDate:  m.ExpiryDate,
			Description: m.Description,
			Image:       m.Image,
		})
	}

	if err := s.Store.Insert(ctx, d); err != nil {
		return nil, apperr.Internal(err)
	}

	details := map[string]interface{}{"medicineCount": len(d.Medicines)}
	if in.DedupKey != "" {
		details["dedupKey"] = in.DedupKey
	}
	s.Audit.Log(ctx, audit.Entry{
		ActorID:    actor.ID.String(),
		Action:     audit.ActionCreateDonation,
		Resource:   "donation",
		ResourceID: d.DonationID.String(),
		Details:    details,
		Severity:   models.SeverityLow,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return d, nil
}

// ListByDonor returns the donor's own donations, newest first.
func (s *Service) ListByDonor(ctx context.Context, donorID uuid.UUID, status string, page int) ([]models.Donation, error) {
	out, err := s.Store.FindManyByDonor(ctx, donorID, status, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Verify records a reviewer decision on a pending donation. Approval
// finalizes creditsEarned and credits the donor atomically with the status
// commit; rejection requires notes. When two reviewers race, the first
// commit wins and the loser observes InvalidTransition.
func (s *Service) Verify(ctx context.Context, actor Actor, donationID uuid.UUID, decision, notes string, meta audit.Meta) (*models.Donation, error) {
	if actor.Role != constants.Reviewer && actor.Role != constants.Admin {
		return nil, apperr.Forbidden("Only reviewers may verify donations")
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperr.Validation("Decision must be approve or reject")
	}
	if decision == DecisionReject && notes == "" {
		return nil, apperr.Validation("Verification notes are required when rejecting")
	}

	d, err := s.Store.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.Status != models.StatusPending {
		return nil, invalidTransition(d.Status, decisionStatus(decision))
	}

	if decision == DecisionReject {
		rows, err := s.Store.ConditionalUpdate(ctx, donationID,
			"status = ?", []interface{}{models.StatusPending},
			map[string]interface{}{
				"status":             models.StatusRejected,
				"verified_by":        actor.ID,
				"verification_notes": notes,
			})
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if rows == 0 {
			return nil, invalidTransition(d.Status, models.StatusRejected)
		}
		s.Audit.LogStatusChange(ctx, meta, actor.ID.String(), donationID.String(), models.StatusPending, models.StatusRejected, notes)
		return s.Store.FindByID(ctx, donationID)
	}

	credits := 0
	capPerItem := s.creditCap()
	for _, m := range d.Medicines {
		if m.Quantity < capPerItem {
			credits += m.Quantity
		} else {
			credits += capPerItem
		}
	}

	// Status commit and donor credit increment are one transaction: a
	// verified donation always has its credits copied to the donor.
	err = s.Store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{DB: tx}
		rows, err := txStore.ConditionalUpdate(ctx, donationID,
			"status = ?", []interface{}{models.StatusPending},
			map[string]interface{}{
				"status":             models.StatusVerified,
				"verified_by":        actor.ID,
				"verification_notes": notes,
				"credits_earned":     credits,
			})
		if err != nil {
			return err
		}
		if rows == 0 {
			return invalidTransition(models.StatusPending, models.StatusVerified)
		}
		return tx.Model(&models.User{}).
			Where("user_id = ?", d.DonorID).
			Update("credits", gorm.Expr("credits + ?", credits)).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInvalidTransition) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	s.Audit.LogStatusChange(ctx, meta, actor.ID.String(), donationID.String(), models.StatusPending, models.StatusVerified, notes)
	return s.Store.FindByID(ctx, donationID)
}

// MarkCollected moves a verified donation to collected. The pickup date must
// not be in the past. An active reservation is cleared in the same write,
// but only when the reserving NGO is the collecting party.
func (s *Service) MarkCollected(ctx context.Context, actor Actor, donationID uuid.UUID, pickupDate time.Time, collectingNGO *uuid.UUID, meta audit.Meta) (*models.Donation, error) {
	if actor.Role != constants.Reviewer && actor.Role != constants.Admin {
		return nil, apperr.Forbidden("Only reviewers or admins may mark donations collected")
	}
	if pickupDate.Before(time.Now().UTC()) {
		return nil, apperr.Validation("Pickup date cannot be in the past")
	}

	d, err := s.Store.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.Status != models.StatusVerified {
		return nil, invalidTransition(d.Status, models.StatusCollected)
	}
	if d.IsReserved {
		if collectingNGO == nil || d.ReservedBy == nil || *collectingNGO != *d.ReservedBy {
			return nil, apperr.ReservationConflict("Donation is reserved by another NGO")
		}
	}

	// The reservation predicate rides along so a reservation taken between
	// the read above and this write cannot be silently dropped.
	rows, err := s.Store.ConditionalUpdate(ctx, donationID,
		"status = ? AND (is_reserved = ? OR reserved_by = ?)",
		[]interface{}{models.StatusVerified, false, collectingNGO},
		map[string]interface{}{
			"status":      models.StatusCollected,
			"pickup_date": pickupDate,
			"is_reserved": false,
			"reserved_by": nil,
			"reserved_at": nil,
		})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rows == 0 {
		current, ferr := s.Store.FindByID(ctx, donationID)
		if ferr == nil && current.Status == models.StatusVerified {
			return nil, apperr.ReservationConflict("Donation is reserved by another NGO")
		}
		return nil, invalidTransition(models.StatusVerified, models.StatusCollected)
	}

	s.Audit.LogStatusChange(ctx, meta, actor.ID.String(), donationID.String(), models.StatusVerified, models.StatusCollected, "")
	return s.Store.FindByID(ctx, donationID)
}

// MarkDistributed moves a collected donation to distributed.
func (s *Service) MarkDistributed(ctx context.Context, actor Actor, donationID uuid.UUID, meta audit.Meta) (*models.Donation, error) {
	if actor.Role != constants.Reviewer && actor.Role != constants.Admin {
		return nil, apperr.Forbidden("Only reviewers or admins may mark donations distributed")
	}

	d, err := s.Store.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.Status != models.StatusCollected {
		return nil, invalidTransition(d.Status, models.StatusDistributed)
	}

	rows, err := s.Store.ConditionalUpdate(ctx, donationID,
		"status = ?", []interface{}{models.StatusCollected},
		map[string]interface{}{"status": models.StatusDistributed})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rows == 0 {
		return nil, invalidTransition(models.StatusCollected, models.StatusDistributed)
	}

	s.Audit.LogStatusChange(ctx, meta, actor.ID.String(), donationID.String(), models.StatusCollected, models.StatusDistributed, "")
	return s.Store.FindByID(ctx, donationID)
}

// Recall withdraws a donation from any post-verification state. Admin only.
// The reservation is cleared; credits already granted stay with the donor,
// since they track the act of giving, not downstream success.
func (s *Service) Recall(ctx context.Context, actor Actor, donationID uuid.UUID, reason string, meta audit.Meta) (*models.Donation, error) {
	if actor.Role != constants.Admin {
		return nil, apperr.Forbidden("Only admins may recall donations")
	}

	d, err := s.Store.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Status, models.StatusRecalled) {
		return nil, invalidTransition(d.Status, models.StatusRecalled)
	}

	rows, err := s.Store.ConditionalUpdate(ctx, donationID,
		"status IN ?", []interface{}{[]string{models.StatusVerified, models.StatusCollected, models.StatusDistributed}},
		map[string]interface{}{
			"status":      models.StatusRecalled,
			"is_reserved": false,
			"reserved_by": nil,
			"reserved_at": nil,
		})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if rows == 0 {
		return nil, invalidTransition(d.Status, models.StatusRecalled)
	}

	s.Audit.LogStatusChange(ctx, meta, actor.ID.String(), donationID.String(), d.Status, models.StatusRecalled, reason)
	return s.Store.FindByID(ctx, donationID)
}

func decisionStatus(decision string) string {
	if decision == DecisionApprove {
		return models.StatusVerified
	}
	return models.StatusRejected
}
