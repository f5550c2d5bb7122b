// Package keepalive runs the background session maintenance loop. On every
// scheduled tick it re-checks auth status with the backend and, when the
// access token is inside its expiry window, refreshes it proactively so
// interactive requests never pay the refresh round trip.
package keepalive

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api"
)

// Session is the slice of session behavior the loop drives.
type Session interface {
	CheckStatus(ctx context.Context) (api.AuthStatus, error)
	IsAuthenticated() bool
	IsTokenExpiringSoon() bool
	RefreshToken(ctx context.Context) error
}

// Runner periodically revalidates the session on a cron schedule.
type Runner struct {
	schedule cron.Schedule
	session  Session
	logger   zerolog.Logger
	now      func() time.Time
}

// New parses spec (standard cron or a descriptor like "@every 1m") and
// returns a runner driving sess.
func New(spec string, sess Session, logger zerolog.Logger) (*Runner, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid keepalive schedule %q: %w", spec, err)
	}

	return &Runner{
		schedule: schedule,
		session:  sess,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run blocks, ticking on the schedule until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info().Msg("Session keepalive started")
	for {
		next := r.schedule.Next(r.now())
		timer := time.NewTimer(next.Sub(r.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info().Msg("Session keepalive stopped")
			return
		case <-timer.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.session.CheckStatus(ctx); err != nil {
		r.logger.Debug().Err(err).Msg("Keepalive status check failed")
		return
	}
	if !r.session.IsAuthenticated() || !r.session.IsTokenExpiringSoon() {
		return
	}

	r.logger.Info().Msg("Access token expiring soon, refreshing")
	if err := r.session.RefreshToken(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Proactive token refresh failed")
	}
}
