package governor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retries of transient failures.
type RetryPolicy struct {
	// MaxAttempts counts the first call. One disables retries.
	MaxAttempts         int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1"`
	InitialInterval     time.Duration `yaml:"initial_interval" json:"initial_interval" validate:"gte=0"`
	MaxInterval         time.Duration `yaml:"max_interval" json:"max_interval" validate:"gte=0"`
	Multiplier          float64       `yaml:"multiplier" json:"multiplier" validate:"gte=1"`
	RandomizationFactor float64       `yaml:"randomization_factor" json:"randomization_factor" validate:"gte=0,lte=1"`
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         5,
		InitialInterval:     200 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.2,
	}
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.RandomizationFactor
	// attempts are bounded by MaxAttempts, not by elapsed time
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}
