package volunteer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"
	"vitamend-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application is a volunteer enrollment form. Stored as JSON on the user.
type Application struct {
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Age           int      `json:"age,omitempty"`
	Address       string   `json:"address,omitempty"`
	Occupation    string   `json:"occupation,omitempty"`
	Experience    string   `json:"experience,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	HoursPerWeek  int      `json:"hoursPerWeek,omitempty"`
	PreferredDays string   `json:"preferredDays,omitempty"`
	Motivation    string   `json:"motivation,omitempty"`
	Status        string   `json:"status"`
	AppliedAt     string   `json:"appliedAt"`
}

type Service struct {
	DB    *gorm.DB
	Audit *audit.Service
}

// Apply stores the application on the user and flips the role to
// volunteer_applicant. Admins and reviewers keep their operational role.
func (s *Service) Apply(ctx context.Context, userID uuid.UUID, app Application, meta audit.Meta) error {
	if app.FirstName == "" || app.LastName == "" {
		return apperr.Validation("First and last name are required")
	}
	if !validation.IsValidEmail(app.Email) {
		return apperr.Validation("A valid email is required")
	}

	var u models.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err)
	}

	app.Status = "pending"
	app.AppliedAt = time.Now().UTC().Format(time.RFC3339)
	raw, err := json.Marshal(app)
	if err != nil {
		return apperr.Internal(err)
	}

	patch := map[string]interface{}{"volunteer_application": raw}
	if u.Role == constants.Donor {
		patch["role"] = constants.VolunteerApplicant
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).Updates(patch).Error; err != nil {
		return apperr.Internal(err)
	}

	s.Audit.Log(ctx, audit.Entry{
		ActorID:    userID.String(),
		Action:     audit.ActionSubmitVolunteer,
		Resource:   "user",
		ResourceID: userID.String(),
		Details:    map[string]interface{}{"status": "pending"},
		Severity:   models.SeverityLow,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}
