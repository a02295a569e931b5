package retry

import "time"

// BackoffStrategyRetry doubles a base delay on every retry, stopping once
// the accumulated wait would exceed maxElapsed.
type BackoffStrategyRetry struct {
	baseDelay  time.Duration
	maxElapsed time.Duration
}

func newBackoffStrategyRetry() *BackoffStrategyRetry {
	return &BackoffStrategyRetry{
		baseDelay:  time.Second * 2,
		maxElapsed: time.Minute,
	}
}

func WithBackoff(baseDelay, maxElapsed time.Duration) Option {
	return func(r Retry) {
		retry := r.(*BackoffStrategyRetry)
		retry.baseDelay = baseDelay
		retry.maxElapsed = maxElapsed
	}
}

func (r *BackoffStrategyRetry) NextDelay(attempts int) time.Duration {
	delay := r.baseDelay << (attempts - 1)

	// total wait through the previous retries: base * (2^(n-1) - 1)
	elapsed := r.baseDelay * time.Duration((1<<(attempts-1))-1)
	if elapsed+delay > r.maxElapsed {
		return Stop
	}
	return delay
}
