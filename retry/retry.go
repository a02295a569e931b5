package retry

import (
	"time"
)

type Strategy string

const (
	FixedStrategy   Strategy = "fixed"
	BackoffStrategy Strategy = "backoff"
)

// Stop is returned by NextDelay when the strategy is out of delays.
const Stop time.Duration = -1

// Retry produces the wait before a given retry. attempts is 1-based: the
// delay after the first failed attempt is NextDelay(1).
type Retry interface {
	NextDelay(attempts int) time.Duration
}

type Option func(Retry)

func NewRetry(strategy Strategy, opts ...Option) Retry {
	var retry Retry
	switch strategy {
	case FixedStrategy:
		retry = newFixedStrategyRetry()
	case BackoffStrategy:
		retry = newBackoffStrategyRetry()
	default:
		panic("invalid strategy: " + strategy)
	}
	for _, opt := range opts {
		opt(retry)
	}
	return retry
}
