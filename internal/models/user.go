package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a platform account. Donors, reviewers, NGO partners, admins and
// volunteer applicants share one table, distinguished by Role.
type User struct {
	UserID               uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Name                 string         `gorm:"column:name;not null" json:"name"`
	Email                string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash         string         `gorm:"column:password_hash;not null" json:"-"`
	Role                 string         `gorm:"column:role;not null;default:donor" json:"role"`
	Credits              int            `gorm:"column:credits;not null;default:0" json:"credits"`
	VolunteerApplication datatypes.JSON `gorm:"column:volunteer_application" json:"volunteer_application,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}
