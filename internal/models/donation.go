package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation statuses. Transitions between them are owned by the donations
// service; nothing else writes Status.
const (
	StatusPending     = "pending"
	StatusVerified    = "verified"
	StatusRejected    = "rejected"
	StatusCollected   = "collected"
	StatusDistributed = "distributed"
	StatusRecalled    = "recalled"
)

// Donation is one submission by one donor: a bundle of medicine line-items
// plus lifecycle and reservation state. Donations are never deleted;
// "recalled" and "rejected" are terminal states.
type Donation struct {
	DonationID        uuid.UUID      `gorm:"column:donation_id;type:uuid;primaryKey" json:"donation_id"`
	DonorID           uuid.UUID      `gorm:"column:donor_id;type:uuid;not null;index:idx_donor_status,priority:1;uniqueIndex:idx_donor_dedup,priority:1" json:"donor_id"`
	Medicines         []Medicine     `gorm:"foreignKey:DonationID;references:DonationID" json:"medicines"`
	Status            string         `gorm:"column:status;type:varchar(20);not null;default:'pending';index:idx_donor_status,priority:2;index:idx_status_created,priority:1" json:"status"`
	PickupAddress     string         `gorm:"column:pickup_address" json:"pickup_address"`
	PickupDate        *time.Time     `gorm:"column:pickup_date" json:"pickup_date"`
	VerificationNotes string         `gorm:"column:verification_notes" json:"verification_notes"`
	VerifiedBy        *uuid.UUID     `gorm:"column:verified_by;type:uuid" json:"verified_by"`
	CreditsEarned     int            `gorm:"column:credits_earned;not null;default:0" json:"credits_earned"`
	IsReserved        bool           `gorm:"column:is_reserved;not null;default:false" json:"is_reserved"`
	ReservedBy        *uuid.UUID     `gorm:"column:reserved_by;type:uuid" json:"reserved_by"`
	ReservedAt        *time.Time     `gorm:"column:reserved_at" json:"reserved_at"`
	DedupKey          *string        `gorm:"column:dedup_key;uniqueIndex:idx_donor_dedup,priority:2,where:dedup_key IS NOT NULL" json:"-"`
	CreatedAt         time.Time      `gorm:"index:idx_status_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.DonationID == uuid.Nil {
		d.DonationID = uuid.New()
	}
	return nil
}

// Medicine is one line-item inside a donation. It has no lifecycle of its
// own; it lives and dies with its donation.
type Medicine struct {
	MedicineID  uuid.UUID `gorm:"column:medicine_id;type:uuid;primaryKey" json:"medicine_id"`
	DonationID  uuid.UUID `gorm:"column:donation_id;type:uuid;not null;index" json:"donation_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Quantity    int       `gorm:"column:quantity;not null" json:"quantity"`
	ExpiryDate  time.Time `gorm:"column:expiry_date;not null" json:"expiry_date"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Image       string    `gorm:"column:image" json:"image,omitempty"`
}

func (Medicine) TableName() string {
	return "donation_medicines"
}

func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.MedicineID == uuid.Nil {
		m.MedicineID = uuid.New()
	}
	return nil
}
