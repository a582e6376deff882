package donations

import (
	"context"
	"errors"
	"time"

	"vitamend-backend/internal/models"
	"vitamend-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PageSize for donor-facing donation listings.
const PageSize = 10

// Store is the persistence boundary for donations. The lifecycle engine and
// the reservation coordinator funnel every mutation through ConditionalUpdate,
// so correctness never depends on in-process locking.
type Store struct {
	DB *gorm.DB
}

func (s *Store) Insert(ctx context.Context, d *models.Donation) error {
	return s.DB.WithContext(ctx).Create(d).Error
}

// FindByID loads a donation with its medicines.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var d models.Donation
	err := s.DB.WithContext(ctx).Preload("Medicines").
		Where("donation_id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Donation not found")
		}
		return nil, err
	}
	return &d, nil
}

// FindByDedupKey returns the donor's donation carrying the dedup key, or nil.
func (s *Store) FindByDedupKey(ctx context.Context, donorID uuid.UUID, key string) (*models.Donation, error) {
	var d models.Donation
	err := s.DB.WithContext(ctx).Preload("Medicines").
		Where("donor_id = ? AND dedup_key = ?", donorID, key).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// FindManyByDonor lists a donor's donations newest first, 10 per page.
// Empty status means all statuses. Pages are 1-based.
func (s *Store) FindManyByDonor(ctx context.Context, donorID uuid.UUID, status string, page int) ([]models.Donation, error) {
	if page < 1 {
		page = 1
	}
	q := s.DB.WithContext(ctx).Preload("Medicines").Where("donor_id = ?", donorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Donation
	err := q.Order("created_at DESC").Limit(PageSize).Offset((page - 1) * PageSize).Find(&out).Error
	return out, err
}

// FindVerifiedUnreserved returns donations visible to the inventory view,
// oldest first, medicines preloaded.
func (s *Store) FindVerifiedUnreserved(ctx context.Context) ([]models.Donation, error) {
	var out []models.Donation
	err := s.DB.WithContext(ctx).Preload("Medicines").
		Where("status = ? AND is_reserved = ?", models.StatusVerified, false).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

// FindReservedBefore returns reserved donations whose reservation is at or
// past the cutoff (inclusive at exactly the TTL boundary), for the sweeper.
func (s *Store) FindReservedBefore(ctx context.Context, cutoff time.Time) ([]models.Donation, error) {
	var out []models.Donation
	err := s.DB.WithContext(ctx).
		Where("is_reserved = ? AND reserved_at <= ?", true, cutoff).
		Find(&out).Error
	return out, err
}

// ConditionalUpdate applies patch to the donation iff cond holds, in one
// atomic statement. Returns the number of rows modified; zero means the
// predicate did not match (lost race or wrong state), never an error.
func (s *Store) ConditionalUpdate(ctx context.Context, id uuid.UUID, cond string, args []interface{}, patch map[string]interface{}) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Donation{}).
		Where("donation_id = ?", id).
		Where(cond, args...).
		Updates(patch)
	return res.RowsAffected, res.Error
}
