package reservations

import (
	"context"
	"time"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/donations"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"

	"github.com/google/uuid"
)

// DefaultTTL is how long an NGO reservation holds before the sweeper
// reclaims it.
const DefaultTTL = 72 * time.Hour

// Service is the reservation coordinator: it guarantees at most one NGO
// claim per verified donation using a single conditional write. No retry, no
// lock — the store predicate is the whole protocol.
type Service struct {
	Store *donations.Store
	Audit *audit.Service
	TTL   time.Duration
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

// Reserve claims donationID for ngoID iff it is verified and unreserved.
// Losers of a race observe AlreadyReserved; the write is never partial.
func (s *Service) Reserve(ctx context.Context, ngoID, donationID uuid.UUID, meta audit.Meta) error {
	rows, err := s.Store.ConditionalUpdate(ctx, donationID,
		"status = ? AND is_reserved = ?",
		[]interface{}{models.StatusVerified, false},
		map[string]interface{}{
			"is_reserved": true,
			"reserved_by": ngoID,
			"reserved_at": time.Now().UTC(),
		})
	if err != nil {
		return apperr.Internal(err)
	}
	if rows == 0 {
		if _, ferr := s.Store.FindByID(ctx, donationID); ferr != nil {
			return ferr
		}
		return apperr.AlreadyReserved("Donation is already reserved or not available")
	}

	s.Audit.Log(ctx, audit.Entry{
		ActorID:    ngoID.String(),
		Action:     audit.ActionReserveDonation,
		Resource:   "donation",
		ResourceID: donationID.String(),
		Details:    map[string]interface{}{"reservedBy": ngoID.String()},
		Severity:   models.SeverityLow,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// Release gives up a reservation. Only the holder may release; anything else
// is a conflict.
func (s *Service) Release(ctx context.Context, ngoID, donationID uuid.UUID, meta audit.Meta) error {
	rows, err := s.Store.ConditionalUpdate(ctx, donationID,
		"is_reserved = ? AND reserved_by = ?",
		[]interface{}{true, ngoID},
		map[string]interface{}{
			"is_reserved": false,
			"reserved_by": nil,
			"reserved_at": nil,
		})
	if err != nil {
		return apperr.Internal(err)
	}
	if rows == 0 {
		if _, ferr := s.Store.FindByID(ctx, donationID); ferr != nil {
			return ferr
		}
		return apperr.ReservationConflict("No reservation held by caller on this donation")
	}

	s.Audit.Log(ctx, audit.Entry{
		ActorID:    ngoID.String(),
		Action:     audit.ActionReleaseReservation,
		Resource:   "donation",
		ResourceID: donationID.String(),
		Details:    map[string]interface{}{"releasedBy": ngoID.String()},
		Severity:   models.SeverityLow,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// SweepExpired reclaims reservations older than the TTL (inclusive at
// exactly TTL). Idempotent and safe under concurrent coordinator activity:
// it only ever weakens a reservation, never takes one. Returns the number
// reclaimed.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl())
	expired, err := s.Store.FindReservedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, d := range expired {
		rows, err := s.Store.ConditionalUpdate(ctx, d.DonationID,
			"is_reserved = ? AND reserved_at <= ?",
			[]interface{}{true, cutoff},
			map[string]interface{}{
				"is_reserved": false,
				"reserved_by": nil,
				"reserved_at": nil,
			})
		if err != nil {
			return reclaimed, err
		}
		if rows == 0 {
			continue
		}
		reclaimed++

		details := map[string]interface{}{"reservedAt": d.ReservedAt}
		if d.ReservedBy != nil {
			details["reservedBy"] = d.ReservedBy.String()
		}
		s.Audit.Log(ctx, audit.Entry{
			ActorID:    audit.SystemActor,
			Action:     audit.ActionExpireReservation,
			Resource:   "donation",
			ResourceID: d.DonationID.String(),
			Details:    details,
			Severity:   models.SeverityMedium,
		})
	}
	return reclaimed, nil
}
