package audit

import (
	"context"
	"time"

	"vitamend-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Audit actions written by the platform. Queries filter on these strings,
// so keep them stable.
const (
	ActionCreateDonation       = "create_donation"
	ActionUpdateDonationStatus = "update_donation_status"
	ActionReserveDonation      = "reserve_donation"
	ActionReleaseReservation   = "release_reservation"
	ActionExpireReservation    = "expire_reservation"
	ActionSubmitVolunteer      = "submit_volunteer_application"
	ActionChangeUserRole       = "change_user_role"
	ActionAccessDenied         = "access_denied"
)

// SystemActor is the actor id recorded for background work (sweeper).
const SystemActor = "system"

type Service struct {
	DB *gorm.DB
}

// Entry is one audit record before persistence.
type Entry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]interface{}
	Severity   string
	IPAddress  string
	UserAgent  string
}

// Log appends an audit entry. A failed write never propagates to the caller:
// the originating operation must not fail because auditing did. The miss is
// logged locally instead.
func (s *Service) Log(ctx context.Context, e Entry) {
	row := models.AuditLog{
		ActorID:    e.ActorID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    e.Details,
		Severity:   e.Severity,
		IPAddress:  orUnknown(e.IPAddress),
		UserAgent:  orUnknown(e.UserAgent),
		Timestamp:  time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error().Err(err).
			Str("actor_id", e.ActorID).
			Str("action", e.Action).
			Str("resource", e.Resource).
			Str("resource_id", e.ResourceID).
			Msg("Failed to create audit log")
	}
}

// Meta carries request attribution for call sites that only have a context
// (services, background work). MetaFromRequest extracts it from a request.
type Meta struct {
	IP        string
	UserAgent string
}

// MetaFromRequest captures the client ip and user agent for audit attribution.
func MetaFromRequest(c *fiber.Ctx) Meta {
	return Meta{IP: clientIP(c), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// LogRequest is Log with ip and user agent taken from the request.
func (s *Service) LogRequest(c *fiber.Ctx, e Entry) {
	e.IPAddress = clientIP(c)
	e.UserAgent = c.Get(fiber.HeaderUserAgent)
	s.Log(c.UserContext(), e)
}

// LogStatusChange records one donation lifecycle transition. Rejections are
// medium severity, recalls high, routine transitions low.
func (s *Service) LogStatusChange(ctx context.Context, meta Meta, actorID, donationID, oldStatus, newStatus, notes string) {
	severity := models.SeverityLow
	switch newStatus {
	case models.StatusRejected:
		severity = models.SeverityMedium
	case models.StatusRecalled:
		severity = models.SeverityHigh
	}
	s.Log(ctx, Entry{
		ActorID:    actorID,
		Action:     ActionUpdateDonationStatus,
		Resource:   "donation",
		ResourceID: donationID,
		Details: map[string]interface{}{
			"oldStatus": oldStatus,
			"newStatus": newStatus,
			"notes":     notes,
		},
		Severity:  severity,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	})
}

// LogAccessDenied records an access-control violation at critical severity.
// Satisfies middleware.AccessAuditor.
func (s *Service) LogAccessDenied(c *fiber.Ctx, actorID, permission string) {
	s.LogRequest(c, Entry{
		ActorID:  orUnknown(actorID),
		Action:   ActionAccessDenied,
		Resource: "permission",
		Details: map[string]interface{}{
			"permission": permission,
			"path":       c.Path(),
			"method":     c.Method(),
		},
		Severity: models.SeverityCritical,
	})
}

// QueryFilters narrows an audit query. Zero values mean "any".
type QueryFilters struct {
	ActorID  string
	Action   string
	Resource string
	Start    *time.Time
	End      *time.Time
}

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 500
)

// Query returns audit entries newest first. Limit is clamped to 500.
func (s *Service) Query(ctx context.Context, f QueryFilters, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	if offset < 0 {
		offset = 0
	}

	q := s.DB.WithContext(ctx).Model(&models.AuditLog{})
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		q = q.Where("resource = ?", f.Resource)
	}
	if f.Start != nil {
		q = q.Where("timestamp >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("timestamp <= ?", *f.End)
	}

	var entries []models.AuditLog
	if err := q.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return c.IP()
}
