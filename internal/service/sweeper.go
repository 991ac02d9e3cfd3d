package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs the periodic status sweep that promotes scheduled meetings
// whose start time has elapsed.
type Sweeper struct {
	meetings *MeetingService
	interval time.Duration
	log      *zap.Logger
}

// NewSweeper creates the sweeper.
func NewSweeper(meetings *MeetingService, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{meetings: meetings, interval: interval, log: log}
}

// Run ticks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.meetings.SweepDue(ctx); n > 0 {
				s.log.Info("sweep promoted meetings", zap.Int("count", n))
			}
		}
	}
}
