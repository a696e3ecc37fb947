package scheduler

import (
	"time"
)

// Config controls sweep intervals and retention windows.
type Config struct {
	RunInterval time.Duration

	// SessionRetention keeps expired and revoked sessions around for a while
	// so recent logouts still show up in support queries.
	SessionRetention time.Duration

	// TokenRetention keeps spent and expired override tokens for the same
	// reason; they back the audit trail for supervised operations.
	TokenRetention time.Duration

	// IdempotencyRetention bounds how long a checkout retry can be replayed.
	IdempotencyRetention time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:          15 * time.Minute,
		SessionRetention:     24 * time.Hour,
		TokenRetention:       24 * time.Hour,
		IdempotencyRetention: 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SessionRetention <= 0 {
		c.SessionRetention = defaults.SessionRetention
	}
	if c.TokenRetention <= 0 {
		c.TokenRetention = defaults.TokenRetention
	}
	if c.IdempotencyRetention <= 0 {
		c.IdempotencyRetention = defaults.IdempotencyRetention
	}
	return c
}
