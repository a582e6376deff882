package reservations

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval between reclaim passes.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically reclaims expired reservations so stock reappears in
// the inventory view. Run blocks until ctx is done; start it in a goroutine.
type Sweeper struct {
	Service  *Service
	Interval time.Duration
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return DefaultSweepInterval
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := s.Service.SweepExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Error().Err(err).Msg("Reservation sweep failed")
				continue
			}
			if reclaimed > 0 {
				log.Info().Int("reclaimed", reclaimed).Msg("Reclaimed expired reservations")
			}
		}
	}
}
