package config

import "fmt"

// DispatcherConfig tunes the request executor. These are engine-wide
// constants, not per-webhook fields.
type DispatcherConfig struct {
	// MaxResponseSize caps how many response body bytes are retained, in bytes.
	MaxResponseSize int64 `yaml:"max_response_size" json:"max_response_size" default:"1048576"`
	// BackoffBaseDelay is the first retry delay in milliseconds; it doubles
	// on every subsequent retry.
	BackoffBaseDelay int64 `yaml:"backoff_base_delay" json:"backoff_base_delay" default:"2000"`
	// BackoffMaxElapsed bounds the total time spent waiting between
	// retries, in milliseconds.
	BackoffMaxElapsed int64 `yaml:"backoff_max_elapsed" json:"backoff_max_elapsed" default:"60000"`
}

func (cfg DispatcherConfig) Validate() error {
	if cfg.MaxResponseSize < 1 || cfg.MaxResponseSize > 1048576 {
		return fmt.Errorf("invalid max_response_size: %d", cfg.MaxResponseSize)
	}
	if cfg.BackoffBaseDelay < 1 {
		return fmt.Errorf("invalid backoff_base_delay: %d", cfg.BackoffBaseDelay)
	}
	if cfg.BackoffMaxElapsed < cfg.BackoffBaseDelay {
		return fmt.Errorf("invalid backoff_max_elapsed: %d", cfg.BackoffMaxElapsed)
	}
	return nil
}
