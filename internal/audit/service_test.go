package audit

import (
	"context"
	"testing"
	"time"

	"vitamend-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuditTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return &Service{DB: db}, db
}

// TestLog fills in defaults for missing attribution.
func TestLog(t *testing.T) {
	svc, db := setupAuditTest(t)

	svc.Log(context.Background(), Entry{
		ActorID:    "actor-1",
		Action:     ActionCreateDonation,
		Resource:   "donation",
		ResourceID: "d-1",
		Details:    map[string]interface{}{"medicineCount": 2},
		Severity:   models.SeverityLow,
	})

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "actor-1", row.ActorID)
	assert.Equal(t, "unknown", row.IPAddress)
	assert.Equal(t, "unknown", row.UserAgent)
	assert.False(t, row.Timestamp.IsZero())
}

// TestLog_WriteFailureDoesNotPanic: a broken audit store must never take the
// originating operation down with it.
func TestLog_WriteFailureDoesNotPanic(t *testing.T) {
	svc, db := setupAuditTest(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	assert.NotPanics(t, func() {
		svc.Log(context.Background(), Entry{ActorID: "a", Action: ActionCreateDonation})
	})
}

// TestQuery filters by actor, action and time range, newest first.
func TestQuery(t *testing.T) {
	svc, db := setupAuditTest(t)
	base := time.Now().UTC().Add(-time.Hour)

	rows := []models.AuditLog{
		{ActorID: "a1", Action: ActionCreateDonation, Resource: "donation", Timestamp: base},
		{ActorID: "a1", Action: ActionReserveDonation, Resource: "donation", Timestamp: base.Add(time.Minute)},
		{ActorID: "a2", Action: ActionCreateDonation, Resource: "donation", Timestamp: base.Add(2 * time.Minute)},
		{ActorID: "a2", Action: ActionChangeUserRole, Resource: "user", Timestamp: base.Add(3 * time.Minute)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	out, err := svc.Query(context.Background(), QueryFilters{ActorID: "a1"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, ActionReserveDonation, out[0].Action)

	out, err = svc.Query(context.Background(), QueryFilters{Action: ActionCreateDonation}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = svc.Query(context.Background(), QueryFilters{Resource: "user"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	start := base.Add(90 * time.Second)
	end := base.Add(4 * time.Minute)
	out, err = svc.Query(context.Background(), QueryFilters{Start: &start, End: &end}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

// TestQuery_LimitAndOffset clamps the limit and pages.
func TestQuery_LimitAndOffset(t *testing.T) {
	svc, db := setupAuditTest(t)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.AuditLog{
			ActorID: "a", Action: ActionCreateDonation, Resource: "donation",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	out, err := svc.Query(context.Background(), QueryFilters{}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = svc.Query(context.Background(), QueryFilters{}, 2, 4)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	// Over-large limits are clamped rather than rejected.
	out, err = svc.Query(context.Background(), QueryFilters{}, 10000, 0)
	require.NoError(t, err)
	assert.Len(t, out, 5)
}

// TestLogStatusChange applies the severity policy per target status.
func TestLogStatusChange(t *testing.T) {
	svc, db := setupAuditTest(t)

	svc.LogStatusChange(context.Background(), Meta{}, "rev-1", "d-1", models.StatusPending, models.StatusVerified, "")
	svc.LogStatusChange(context.Background(), Meta{}, "rev-1", "d-2", models.StatusPending, models.StatusRejected, "damaged")
	svc.LogStatusChange(context.Background(), Meta{}, "adm-1", "d-3", models.StatusVerified, models.StatusRecalled, "batch recall")

	bySeverity := func(sev string) int64 {
		var n int64
		require.NoError(t, db.Model(&models.AuditLog{}).Where("severity = ?", sev).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), bySeverity(models.SeverityLow))
	assert.Equal(t, int64(1), bySeverity(models.SeverityMedium))
	assert.Equal(t, int64(1), bySeverity(models.SeverityHigh))
}
