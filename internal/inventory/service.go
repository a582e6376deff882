package inventory

import (
	"context"
	"sort"
	"strings"
	"time"

	"vitamend-backend/internal/donations"
	"vitamend-backend/internal/pkg/apperr"
)

// defaultLocation is shown when the donor left no pickup address.
const defaultLocation = "Central Warehouse"

// expiringSoonWindow marks stock worth moving first.
const expiringSoonWindow = 90 * 24 * time.Hour

// Item is one browsable medicine line, flattened out of its donation.
type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiryDate"`
	Location   string    `json:"location"`
	DonorID    string    `json:"donorId"`
}

// Filters narrows the available-medicines projection.
type Filters struct {
	ExpiringSoon bool
	Location     string
}

// Service projects verified, unreserved donations into browsable medicine
// line-items for NGO partners. The projection is eventually consistent; the
// reservation coordinator is the source of truth at reserve time.
type Service struct {
	Store *donations.Store
}

// Available returns the projection ordered by expiry ascending (closer
// expiries offered first), then by donation creation time.
func (s *Service) Available(ctx context.Context, f Filters) ([]Item, error) {
	rows, err := s.Store.FindVerifiedUnreserved(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	locFilter := strings.ToLower(strings.TrimSpace(f.Location))

	items := make([]Item, 0, len(rows))
	order := make(map[string]time.Time, len(rows))
	for _, d := range rows {
		location := d.PickupAddress
		if location == "" {
			location = defaultLocation
		}
		if locFilter != "" && !strings.Contains(strings.ToLower(d.PickupAddress), locFilter) {
			continue
		}
		for _, m := range d.Medicines {
			if f.ExpiringSoon && m.ExpiryDate.Sub(now) > expiringSoonWindow {
				continue
			}
			id := d.DonationID.String() + "-" + m.MedicineID.String()
			items = append(items, Item{
				ID:         id,
				Name:       m.Name,
				Quantity:   m.Quantity,
				ExpiryDate: m.ExpiryDate,
				Location:   location,
				DonorID:    d.DonorID.String(),
			})
			order[id] = d.CreatedAt
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ExpiryDate.Equal(items[j].ExpiryDate) {
			return items[i].ExpiryDate.Before(items[j].ExpiryDate)
		}
		return order[items[i].ID].Before(order[items[j].ID])
	})
	return items, nil
}
