package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit severities. Policy: low for routine self-service, medium for
// rejections and expired-reservation sweeps, high for admin overrides and
// recalls, critical for access-control violations.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AuditLog is one immutable record of a sensitive action. Rows are only ever
// inserted; there is no update or delete path through the application.
type AuditLog struct {
	AuditID    uuid.UUID         `gorm:"column:audit_id;type:uuid;primaryKey" json:"audit_id"`
	ActorID    string            `gorm:"column:actor_id;not null;index" json:"actor_id"`
	Action     string            `gorm:"column:action;not null;index" json:"action"`
	Resource   string            `gorm:"column:resource;not null;index" json:"resource"`
	ResourceID string            `gorm:"column:resource_id" json:"resource_id"`
	Details    datatypes.JSONMap `gorm:"column:details" json:"details"`
	Severity   string            `gorm:"column:severity;type:varchar(10);not null;default:'low'" json:"severity"`
	IPAddress  string            `gorm:"column:ip_address" json:"ip_address"`
	UserAgent  string            `gorm:"column:user_agent" json:"user_agent"`
	Timestamp  time.Time         `gorm:"column:timestamp;not null;index" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.AuditID == uuid.Nil {
		a.AuditID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if a.Severity == "" {
		a.Severity = SeverityLow
	}
	return nil
}
