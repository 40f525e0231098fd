package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Refresher is the part of RiskService the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) (*domain.AnalysisRun, error)
}

// RunScheduler refreshes once immediately and then every interval until ctx is
// cancelled. Failed runs are logged; the previous run stays in place.
func RunScheduler(ctx context.Context, r Refresher, interval time.Duration) {
	if interval <= 0 {
		return
	}

	log.Info().Dur("interval", interval).Msg("Starting periodic risk refresh")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Scheduled risk refresh failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping periodic risk refresh")
			return
		case <-ticker.C:
		}
	}
}
