package users

import (
	"context"
	"errors"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Audit *audit.Service
}

// Get returns one user. Non-admin callers may only read themselves.
func (s *Service) Get(ctx context.Context, caller models.User, targetID uuid.UUID) (*models.User, error) {
	if caller.Role != constants.Admin && caller.UserID != targetID {
		return nil, apperr.Forbidden("Cannot view another user")
	}
	var u models.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", targetID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return &u, nil
}

// ChangeRole updates a user's role. Admin only; audited at high severity.
func (s *Service) ChangeRole(ctx context.Context, adminID uuid.UUID, targetID uuid.UUID, newRole string, meta audit.Meta) error {
	if !constants.IsValidRole(newRole) {
		return apperr.Validation("Invalid role")
	}

	var u models.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", targetID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err)
	}
	if u.Role == newRole {
		return nil
	}

	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", targetID).Update("role", newRole).Error; err != nil {
		return apperr.Internal(err)
	}

	s.Audit.Log(ctx, audit.Entry{
		ActorID:    adminID.String(),
		Action:     audit.ActionChangeUserRole,
		Resource:   "user",
		ResourceID: targetID.String(),
		Details: map[string]interface{}{
			"oldRole": u.Role,
			"newRole": newRole,
		},
		Severity:  models.SeverityHigh,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}
