package governor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects what happens when the rate limit budget is exhausted.
type Mode string

const (
	// ModeBlock waits until budget replenishes.
	ModeBlock Mode = "block"
	// ModeFail fails the call with RateLimited.
	ModeFail Mode = "fail"
)

// Session is the venue session state the governor consults and updates.
type Session interface {
	// Allow fails fast with Disconnected while the session is degraded.
	Allow() error
	RecordSuccess()
	RecordFailure(err error)
	// Abandon releases what Allow reserved for a call that never reached
	// the venue.
	Abandon()
	Limiter() *Limiter
}

// Op describes a governed call.
type Op struct {
	Name string
	// Idempotent marks calls that are safe to repeat: placement with a
	// stable client order ID, cancel by ID and every read.
	Idempotent bool
}

// Config configures a Governor.
type Config struct {
	Mode  Mode        `yaml:"mode" json:"mode" validate:"omitempty,oneof=block fail"`
	Retry RetryPolicy `yaml:"retry" json:"retry"`
	// CallTimeout bounds each attempt. Zero leaves attempts unbounded.
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout" validate:"gte=0"`
}

// DefaultConfig returns a blocking governor with the default retry policy.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeBlock,
		Retry:       DefaultRetryPolicy(),
		CallTimeout: 10 * time.Second,
	}
}

// Governor throttles calls to one venue and retries transient failures.
// It is the only place that decides between retrying and propagating.
type Governor struct {
	session Session
	config  Config
	logger  *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a governor over the given venue session.
func New(session Session, config Config, log *logger.Logger) *Governor {
	if config.Mode == "" {
		config.Mode = ModeBlock
	}

	if config.Retry.MaxAttempts < 1 {
		config.Retry.MaxAttempts = 1
	}

	return &Governor{
		session: session,
		config:  config,
		logger:  log.Named("governor"),
		sleep:   sleepContext,
	}
}

// Do runs fn under the session's budget. Transient failures of idempotent
// operations are retried with exponential backoff up to MaxAttempts; every
// other failure is returned unchanged.
func (g *Governor) Do(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	b := g.config.Retry.newBackOff()

	for attempt := 1; ; attempt++ {
		if err := g.session.Allow(); err != nil {
			return err
		}

		if err := g.acquire(ctx); err != nil {
			g.session.Abandon()

			return err
		}

		err := g.call(ctx, fn)
		if err == nil {
			g.session.RecordSuccess()

			return nil
		}

		g.session.RecordFailure(err)

		if !op.Idempotent || !errors.IsTransient(err) || attempt >= g.config.Retry.MaxAttempts || ctx.Err() != nil {
			if errors.IsTransient(err) {
				g.logger.Warn("Giving up on transient failure",
					zap.String("op", op.Name), zap.Int("attempt", attempt), zap.Error(err))
			}

			return err
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}

		g.logger.Debug("Retrying after transient failure",
			zap.String("op", op.Name), zap.Int("attempt", attempt),
			zap.Duration("backoff", wait), zap.Error(err))

		if serr := g.sleep(ctx, wait); serr != nil {
			return err
		}
	}
}

func (g *Governor) acquire(ctx context.Context) error {
	limiter := g.session.Limiter()
	if limiter == nil {
		return nil
	}

	if g.config.Mode == ModeFail {
		if ok, _ := limiter.TryAcquire(); !ok {
			return errors.New(errors.ErrCodeRateLimited, "rate limit budget exhausted")
		}

		return nil
	}

	return limiter.Wait(ctx)
}

func (g *Governor) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx := ctx

	if g.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.CallTimeout)

		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	// an attempt that ran out of its own time is a transient timeout,
	// unless the caller's context is what expired
	if ctx.Err() == nil && callCtx.Err() != nil && !errors.IsTransient(err) {
		return errors.Wrap(errors.ErrCodeTimeout, "venue call timed out", err)
	}

	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
