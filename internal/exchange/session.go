package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/superalgorithm/superalgorithm/internal/governor"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// SessionConfig configures the budget and failure handling of a venue session.
type SessionConfig struct {
	// RequestsPerWindow is the rolling budget. Zero disables limiting.
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window" validate:"gte=0"`
	Window            time.Duration `yaml:"window" json:"window" validate:"gte=0"`
	// DegradeAfter consecutive transport failures mark the session degraded.
	DegradeAfter int `yaml:"degrade_after" json:"degrade_after" validate:"gte=0"`
	// ReconnectCooldown is how long a degraded session fails fast before a
	// single trial call is let through.
	ReconnectCooldown time.Duration `yaml:"reconnect_cooldown" json:"reconnect_cooldown" validate:"gte=0"`
}

// DefaultSessionConfig returns conservative session defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		RequestsPerWindow: 10,
		Window:            time.Second,
		DegradeAfter:      5,
		ReconnectCooldown: 30 * time.Second,
	}
}

// Session is the connection state of one venue: rolling budget, status and
// consecutive transport failures. It is owned by exactly one connector.
type Session struct {
	venue   string
	config  SessionConfig
	limiter *governor.Limiter
	logger  *logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	status     types.VenueStatus
	failures   int
	degradedAt time.Time
	trialing    bool
}

// NewSession creates a connected session for venue.
func NewSession(venue string, config SessionConfig, log *logger.Logger) *Session {
	if config.DegradeAfter <= 0 {
		config.DegradeAfter = DefaultSessionConfig().DegradeAfter
	}

	return &Session{
		venue:   venue,
		config:  config,
		limiter: governor.NewLimiter(config.RequestsPerWindow, config.Window),
		logger:  log.Named("session").WithFields(zap.String("venue", venue)),
		now:     time.Now,
		status:  types.VenueStatusConnected,
	}
}

// Limiter returns the session's rolling budget.
func (s *Session) Limiter() *governor.Limiter {
	return s.limiter
}

// Status returns the connectivity status.
func (s *Session) Status() types.VenueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Info returns a snapshot of the session.
func (s *Session) Info() types.SessionInfo {
	s.mu.Lock()
	status, failures := s.status, s.failures
	s.mu.Unlock()

	return types.SessionInfo{
		Venue:           s.venue,
		Status:          status,
		BudgetRemaining: s.limiter.Remaining(),
		Failures:        failures,
	}
}

// Allow fails fast with Disconnected while the session is degraded. Once the
// reconnect cooldown has elapsed a single trial call is let through; its
// outcome decides whether the session recovers.
func (s *Session) Allow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == types.VenueStatusConnected {
		return nil
	}

	if !s.trialing && s.config.ReconnectCooldown > 0 && s.now().Sub(s.degradedAt) >= s.config.ReconnectCooldown {
		s.trialing = true

		return nil
	}

	return errors.Newf(errors.ErrCodeDisconnected, "venue %s session is %s", s.venue, s.status)
}

// RecordSuccess resets the failure count and restores a degraded session.
func (s *Session) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recover()
}

func (s *Session) recover() {
	s.failures = 0
	s.trialing = false

	if s.status != types.VenueStatusConnected {
		s.status = types.VenueStatusConnected
		s.logger.Info("Venue session recovered")
	}
}

// RecordFailure counts disconnects and timeouts. Any other error the venue
// answered with, rate limiting included, proves the link is up and counts as
// a response. A call abandoned by its caller only releases the trial slot.
func (s *Session) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := errors.GetCode(err)
	if code != errors.ErrCodeDisconnected && code != errors.ErrCodeTimeout {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.trialing = false

			return
		}

		s.recover()

		return
	}

	s.failures++

	if s.trialing {
		s.trialing = false
		s.degradedAt = s.now()

		return
	}

	if s.status == types.VenueStatusConnected && s.failures >= s.config.DegradeAfter {
		s.status = types.VenueStatusDegraded
		s.degradedAt = s.now()
		s.logger.Error("Venue session degraded", zap.Int("failures", s.failures), zap.Error(err))
	}
}

// Abandon releases the trial slot taken by Allow when the call never reached
// the venue, so the next call after the cooldown is let through again.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trialing = false
}

// MarkDisconnected records that the transport is known to be down.
func (s *Session) MarkDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != types.VenueStatusDisconnected {
		s.status = types.VenueStatusDisconnected
		s.degradedAt = s.now()
		s.logger.Warn("Venue session disconnected")
	}
}

// Reconnect runs check and restores the session when it succeeds. A failed
// check marks the session disconnected.
func (s *Session) Reconnect(ctx context.Context, check func(ctx context.Context) error) error {
	if err := check(ctx); err != nil {
		s.MarkDisconnected()

		s.mu.Lock()
		s.degradedAt = s.now()
		s.mu.Unlock()

		return errors.Wrapf(errors.ErrCodeDisconnected, err, "reconnect to %s failed", s.venue)
	}

	s.RecordSuccess()

	return nil
}
