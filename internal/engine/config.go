package engine

import "time"

// Config carries the synchronization tunables for all sessions.
type Config struct {
	// StateTTL bounds how stale a cached value may be before a refresh
	// re-fetches it, and rate-limits the consolidated snapshot call.
	StateTTL time.Duration

	// FastInterval and SlowInterval are the two polling cadences.
	FastInterval time.Duration
	SlowInterval time.Duration

	// BurstInterval replaces FastInterval while burst mode is on.
	BurstInterval time.Duration

	// FailureThreshold is the consecutive per-member failure count that
	// demotes a member to unsupported.
	FailureThreshold int

	// FaultThreshold is the number of consecutive refresh cycles that
	// must fail entirely before the session faults.
	FaultThreshold int

	// ConnectAttempts and ConnectRetryDelay shape the connect probe
	// retry loop.
	ConnectAttempts   int
	ConnectRetryDelay time.Duration
}

// withDefaults fills unset fields with working values.
func (c Config) withDefaults() Config {
	if c.StateTTL <= 0 {
		c.StateTTL = 500 * time.Millisecond
	}
	if c.FastInterval <= 0 {
		c.FastInterval = time.Second
	}
	if c.SlowInterval <= 0 {
		c.SlowInterval = 10 * time.Second
	}
	if c.BurstInterval <= 0 {
		c.BurstInterval = 500 * time.Millisecond
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.FaultThreshold <= 0 {
		c.FaultThreshold = 5
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	if c.ConnectRetryDelay <= 0 {
		c.ConnectRetryDelay = time.Second
	}
	return c
}
