package auth

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sitehaven/sitehaven/pkg/observability"
)

// DefaultSweepSchedule purges expired sessions hourly.
const DefaultSweepSchedule = "@hourly"

// SessionSweeper periodically removes expired session rows. The storage
// expiry check remains authoritative; the sweeper only keeps the table small.
type SessionSweeper struct {
	sessions SessionStore
	cron     *cron.Cron
	logger   *observability.Logger
}

// NewSessionSweeper creates a sweeper with the given cron schedule.
func NewSessionSweeper(sessions SessionStore, schedule string, logger *observability.Logger) (*SessionSweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	sweeper := &SessionSweeper{
		sessions: sessions,
		cron:     cron.New(),
		logger:   logger,
	}
	if _, err := sweeper.cron.AddFunc(schedule, sweeper.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return sweeper, nil
}

// Start begins the sweep schedule
func (s *SessionSweeper) Start() {
	s.cron.Start()
}

// Stop halts the sweep schedule and waits for a running sweep to finish
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SessionSweeper) sweep() {
	deleted, err := s.sessions.DeleteExpiredSessions(context.Background())
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("session sweep failed")
		return
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("purged expired sessions")
	}
}
