package transport

import "time"

// Config defines connect, read and teardown defaults.
type Config struct {
	ConnectTimeout time.Duration
	// ReadChunk bounds a single ReadAvailable call when the caller passes
	// no explicit maximum.
	ReadChunk int
	// TerminateGrace is how long Close waits after SIGTERM before SIGKILL.
	TerminateGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		ReadChunk:      4096,
		TerminateGrace: 2 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadChunk <= 0 {
		c.ReadChunk = def.ReadChunk
	}
	if c.TerminateGrace <= 0 {
		c.TerminateGrace = def.TerminateGrace
	}
	return c
}
