// Package scheduler runs the background jobs that keep screening state
// aligned with the clock.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/megacine/reservation-system/internal/domain"
)

// DefaultSweepInterval is how often the sweeper looks for screenings whose
// end time has passed.
const DefaultSweepInterval = 5 * time.Minute

// ScreeningSweeper periodically moves SCHEDULED screenings whose end time
// has passed to ENDED. Each sweep is a single bulk update, so running more
// than one instance is safe, just redundant.
type ScreeningSweeper struct {
	screeningRepo domain.ScreeningRepository
	interval      time.Duration
	logger        *slog.Logger
	stopCh        chan struct{}
	doneCh        chan struct{}
}

func NewScreeningSweeper(
	screeningRepo domain.ScreeningRepository,
	interval time.Duration,
	logger *slog.Logger) *ScreeningSweeper {

	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &ScreeningSweeper{
		screeningRepo: screeningRepo,
		interval:      interval,
		logger:        logger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. It blocks; run it on its own goroutine.
func (s *ScreeningSweeper) Start(ctx context.Context) {
	s.logger.Info("starting screening sweeper", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping screening sweeper", "reason", "context cancelled")
			return
		case <-s.stopCh:
			s.logger.Info("stopping screening sweeper", "reason", "stop requested")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight sweep to finish.
func (s *ScreeningSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *ScreeningSweeper) sweep(ctx context.Context) {
	count, err := s.screeningRepo.EndPastScreenings(ctx, time.Now())
	if err != nil {
		s.logger.Error("screening sweep failed", "error", err)
		return
	}

	if count > 0 {
		s.logger.Info("ended past screenings", "count", count)
	}
}
