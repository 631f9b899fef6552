package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

// NewUUID returns a random RFC 4122 v4 UUID string. Vector store point
// IDs must be UUIDs, unlike the prefixed IDs used elsewhere.
func NewUUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// BackoffConfig parameterizes linear-capped retry schedules:
// the wait before retry n is min(Base*n, MaxDelay).
type BackoffConfig struct {
	Base        time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func NormalizeBackoff(cfg BackoffConfig) BackoffConfig {
	if cfg.Base <= 0 {
		cfg.Base = 5 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return cfg
}

// DelayFor returns the wait before retry attempt n (1-based).
func (c BackoffConfig) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := c.Base * time.Duration(attempt)
	if d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}
