package reservations

import (
	"context"
	"testing"
	"time"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/donations"
	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReservationTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Donation{}, &models.Medicine{}, &models.AuditLog{}))

	service := &Service{
		Store: &donations.Store{DB: db},
		Audit: &audit.Service{DB: db},
		TTL:   72 * time.Hour,
	}
	return service, db
}

func createNGO(t *testing.T, db *gorm.DB) models.User {
	u := models.User{
		Name:         "Hope Relief",
		Email:        uuid.New().String() + "@ngo.example.com",
		PasswordHash: "x",
		Role:         constants.NGOPartner,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createVerifiedDonation(t *testing.T, db *gorm.DB) models.Donation {
	d := models.Donation{
		DonorID: uuid.New(),
		Status:  models.StatusVerified,
		Medicines: []models.Medicine{{
			Name:       "Paracetamol 500mg",
			Quantity:   50,
			ExpiryDate: time.Now().UTC().AddDate(1, 0, 0),
		}},
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

// TestReserve claims a verified donation and audits it.
func TestReserve(t *testing.T) {
	svc, db := setupReservationTest(t)
	ngo := createNGO(t, db)
	d := createVerifiedDonation(t, db)

	require.NoError(t, svc.Reserve(context.Background(), ngo.UserID, d.DonationID, audit.Meta{}))

	got, err := svc.Store.FindByID(context.Background(), d.DonationID)
	require.NoError(t, err)
	assert.True(t, got.IsReserved)
	require.NotNil(t, got.ReservedBy)
	assert.Equal(t, ngo.UserID, *got.ReservedBy)
	assert.NotNil(t, got.ReservedAt)
	assert.Equal(t, models.StatusVerified, got.Status)

	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", audit.ActionReserveDonation).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// TestReserve_SecondClaimLoses: at most one claim per donation.
func TestReserve_SecondClaimLoses(t *testing.T) {
	svc, db := setupReservationTest(t)
	first := createNGO(t, db)
	second := createNGO(t, db)
	d := createVerifiedDonation(t, db)

	require.NoError(t, svc.Reserve(context.Background(), first.UserID, d.DonationID, audit.Meta{}))
	err := svc.Reserve(context.Background(), second.UserID, d.DonationID, audit.Meta{})
	assert.Equal(t, apperr.KindAlreadyReserved, apperr.KindOf(err))

	// The holder is unchanged and no second audit entry was written.
	got, ferr := svc.Store.FindByID(context.Background(), d.DonationID)
	require.NoError(t, ferr)
	assert.Equal(t, first.UserID, *got.ReservedBy)

	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", audit.ActionReserveDonation).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// TestReserve_NotVerified rejects pending and collected donations.
func TestReserve_NotVerified(t *testing.T) {
	svc, db := setupReservationTest(t)
	ngo := createNGO(t, db)

	pending := models.Donation{DonorID: uuid.New(), Status: models.StatusPending}
	require.NoError(t, db.Create(&pending).Error)

	err := svc.Reserve(context.Background(), ngo.UserID, pending.DonationID, audit.Meta{})
	assert.Equal(t, apperr.KindAlreadyReserved, apperr.KindOf(err))
}

// TestReserve_Missing returns NotFound.
func TestReserve_Missing(t *testing.T) {
	svc, db := setupReservationTest(t)
	ngo := createNGO(t, db)

	err := svc.Reserve(context.Background(), ngo.UserID, uuid.New(), audit.Meta{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// TestRelease frees the claim so another NGO can take it.
func TestRelease(t *testing.T) {
	svc, db := setupReservationTest(t)
	first := createNGO(t, db)
	second := createNGO(t, db)
	d := createVerifiedDonation(t, db)

	require.NoError(t, svc.Reserve(context.Background(), first.UserID, d.DonationID, audit.Meta{}))
	require.NoError(t, svc.Release(context.Background(), first.UserID, d.DonationID, audit.Meta{}))

	got, err := svc.Store.FindByID(context.Background(), d.DonationID)
	require.NoError(t, err)
	assert.False(t, got.IsReserved)
	assert.Nil(t, got.ReservedBy)
	assert.Nil(t, got.ReservedAt)

	require.NoError(t, svc.Reserve(context.Background(), second.UserID, d.DonationID, audit.Meta{}))
}

// TestRelease_NotHolder is a conflict; only the holder may release.
func TestRelease_NotHolder(t *testing.T) {
	svc, db := setupReservationTest(t)
	holder := createNGO(t, db)
	other := createNGO(t, db)
	d := createVerifiedDonation(t, db)

	require.NoError(t, svc.Reserve(context.Background(), holder.UserID, d.DonationID, audit.Meta{}))
	err := svc.Release(context.Background(), other.UserID, d.DonationID, audit.Meta{})
	assert.Equal(t, apperr.KindReservationConflict, apperr.KindOf(err))

	got, ferr := svc.Store.FindByID(context.Background(), d.DonationID)
	require.NoError(t, ferr)
	assert.True(t, got.IsReserved)
}

// TestSweepExpired reclaims at exactly the TTL and not one second before.
func TestSweepExpired(t *testing.T) {
	svc, db := setupReservationTest(t)
	ngo := createNGO(t, db)

	now := time.Now().UTC()
	atTTL := createVerifiedDonation(t, db)
	fresh := createVerifiedDonation(t, db)

	reserve := func(d models.Donation, at time.Time) {
		_, err := svc.Store.ConditionalUpdate(context.Background(), d.DonationID,
			"status = ?", []interface{}{models.StatusVerified},
			map[string]interface{}{"is_reserved": true, "reserved_by": ngo.UserID, "reserved_at": at})
		require.NoError(t, err)
	}
	reserve(atTTL, now.Add(-72*time.Hour))
	reserve(fresh, now.Add(-72*time.Hour).Add(time.Second))

	reclaimed, err := svc.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	got, err := svc.Store.FindByID(context.Background(), atTTL.DonationID)
	require.NoError(t, err)
	assert.False(t, got.IsReserved)
	assert.Equal(t, models.StatusVerified, got.Status)

	got, err = svc.Store.FindByID(context.Background(), fresh.DonationID)
	require.NoError(t, err)
	assert.True(t, got.IsReserved)

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", audit.ActionExpireReservation).First(&entry).Error)
	assert.Equal(t, audit.SystemActor, entry.ActorID)
	assert.Equal(t, models.SeverityMedium, entry.Severity)
}

// TestSweepExpired_Idempotent: a second sweep finds nothing.
func TestSweepExpired_Idempotent(t *testing.T) {
	svc, db := setupReservationTest(t)
	ngo := createNGO(t, db)
	d := createVerifiedDonation(t, db)

	now := time.Now().UTC()
	_, err := svc.Store.ConditionalUpdate(context.Background(), d.DonationID,
		"status = ?", []interface{}{models.StatusVerified},
		map[string]interface{}{"is_reserved": true, "reserved_by": ngo.UserID, "reserved_at": now.Add(-100 * time.Hour)})
	require.NoError(t, err)

	reclaimed, err := svc.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	reclaimed, err = svc.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)
}
