package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	Base           time.Duration
	Random         time.Duration // upper bound of the random jitter
	DelayOnSuccess bool
}

// TimingDelay pads failed signins so "no such account" and "wrong password"
// take about as long as each other
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// cryptoJitter returns a secure random duration in [0, max)
func cryptoJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(buf[:]) % uint64(max))
}

func (td *TimingDelay) target() time.Duration {
	return td.config.Base + cryptoJitter(td.config.Random)
}

// Wait sleeps base plus jitter unless the operation succeeded
func (td *TimingDelay) Wait(success bool) {
	if success && !td.config.DelayOnSuccess {
		return
	}
	time.Sleep(td.target())
}

// WaitFrom sleeps until at least base plus jitter has elapsed since start
func (td *TimingDelay) WaitFrom(start time.Time, success bool) {
	if success && !td.config.DelayOnSuccess {
		return
	}

	if remaining := td.target() - time.Since(start); remaining > 0 {
		time.Sleep(remaining)
	}
}
