package cc

import (
	"os"
	"strconv"
	"time"
)

const (
	envConnectionTimeout = "VIP_SATURN_ZK_CLIENT_CONNECTION_TIMEOUT_IN_SECONDS"
	envSessionTimeout    = "VIP_SATURN_ZK_CLIENT_SESSION_TIMEOUT_IN_SECONDS"

	minConnectionTimeout = 20 * time.Second
	maxConnectionTimeout = 60 * time.Second
	minSessionTimeout    = 20 * time.Second
	maxSessionTimeout    = 40 * time.Second

	defaultConnectionTimeout = 30 * time.Second
	defaultSessionTimeout    = 30 * time.Second
)

// Config holds CC's tunables. Endpoints/Namespace are required; the
// timeouts default from environment variables the core recognizes
// (spec.md §6), clamped to their documented bounds.
type Config struct {
	Endpoints         []string
	Namespace         string
	ConnectionTimeout time.Duration
	SessionTimeout    time.Duration

	// RetryBaseDelay/RetryMaxDelay bound the exponential backoff used
	// when reconnecting after a lost session.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// WithDefaults fills in unset fields from environment variables and
// documented defaults, clamping to the bounds spec.md §6 requires.
func (c Config) WithDefaults() Config {
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = clamp(envDuration(envConnectionTimeout, defaultConnectionTimeout), minConnectionTimeout, maxConnectionTimeout)
	} else {
		c.ConnectionTimeout = clamp(c.ConnectionTimeout, minConnectionTimeout, maxConnectionTimeout)
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = clamp(envDuration(envSessionTimeout, defaultSessionTimeout), minSessionTimeout, maxSessionTimeout)
	} else {
		c.SessionTimeout = clamp(c.SessionTimeout, minSessionTimeout, maxSessionTimeout)
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 200 * time.Millisecond
	}
	if c.RetryMaxDelay == 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	return c
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(secs) * time.Second
}
