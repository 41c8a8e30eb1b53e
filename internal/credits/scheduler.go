package credits

import (
	"context"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// Scheduler runs the reset job on a fixed interval until its context ends.
type Scheduler struct {
	resetter *Resetter
	interval time.Duration
	logger   logging.Logger
}

func NewScheduler(resetter *Resetter, interval time.Duration, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{resetter: resetter, interval: interval, logger: logger}
}

// Run blocks until ctx is done. A non-positive interval returns immediately.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("credit reset scheduled", logging.Field{Key: "interval", Value: s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.resetter.Run(ctx); err != nil {
				s.logger.Warn("scheduled credit reset failed", logging.Err(err))
			}
		}
	}
}
