package donations

import (
	"fmt"
	"time"

	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"
)

// transitions is the donation state machine. Anything not listed here is
// rejected with InvalidTransition.
var transitions = map[string][]string{
	models.StatusPending:     {models.StatusVerified, models.StatusRejected},
	models.StatusVerified:    {models.StatusCollected, models.StatusRecalled},
	models.StatusCollected:   {models.StatusDistributed, models.StatusRecalled},
	models.StatusDistributed: {models.StatusRecalled},
}

// CanTransition reports whether from -> to is an allowed lifecycle step.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to string) error {
	return apperr.InvalidTransition(fmt.Sprintf("Cannot transition donation from %s to %s", from, to))
}

// minShelfLifeMonths is the minimum remaining shelf life at submission.
// A medicine expiring exactly at the boundary is accepted.
const minShelfLifeMonths = 6

// MedicineInput is one line-item in a submission payload.
type MedicineInput struct {
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	ExpiryDate  time.Time `json:"expiryDate"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
}

// validateMedicines checks every line-item against the shelf-life margin,
// relative to now.
func validateMedicines(items []MedicineInput, now time.Time) error {
	if len(items) == 0 {
		return apperr.Validation("At least one medicine is required")
	}
	margin := now.AddDate(0, minShelfLifeMonths, 0)
	for _, m := range items {
		if m.Name == "" {
			return apperr.Validation("Medicine name is required")
		}
		if m.Quantity < 1 {
			return apperr.Validation("Medicine quantity must be at least 1")
		}
		if m.ExpiryDate.Before(margin) {
			return apperr.Validation(fmt.Sprintf("Medicine %q expires within %d months and cannot be accepted", m.Name, minShelfLifeMonths))
		}
	}
	return nil
}
