package resilience

import (
	"time"
)

// FromConnectConfig converts connect settings to a fixed-delay RetryConfig
// that only retries IsNotReady errors.
func FromConnectConfig(maxAttempts int, delay time.Duration) RetryConfig {
	cfg := FixedDelay(10, 3*time.Second)
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if delay > 0 {
		cfg.InitialBackoff = delay
		cfg.MaxBackoff = delay
	}
	cfg.ShouldRetry = IsNotReady
	return cfg
}
