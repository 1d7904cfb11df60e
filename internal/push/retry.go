package push

import (
	"math"
	"time"
)

// RetryPolicy decides how to schedule reconnect attempts after abnormal
// closures. failures is the number of consecutive abnormal closures with no
// intervening successful open (at least 1 when consulted); foreground reports
// whether the host application is currently in the foreground.
type RetryPolicy interface {
	NextDelay(failures int, foreground bool) (delay time.Duration, retry bool)
}

// FixedRetry reconnects after a constant delay, forever. This is the
// web-client profile: the page lives as long as the tab, so there is no
// reason to give up.
type FixedRetry struct {
	Delay time.Duration
}

// NextDelay implements RetryPolicy.
func (p FixedRetry) NextDelay(failures int, foreground bool) (time.Duration, bool) {
	delay := p.Delay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return delay, true
}

// Backoff grows the reconnect delay exponentially and, while the host
// application is backgrounded, gives up after a bounded number of consecutive
// failures. This is the mobile-client profile; a foreground or
// network-restored signal resumes attempts.
type Backoff struct {
	Base                  time.Duration
	Factor                float64
	Cap                   time.Duration
	MaxBackgroundAttempts int
}

// DefaultBackoff matches the mobile client: 3s base, 1.5x growth, 30s cap,
// 5 attempts while backgrounded.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:                  3 * time.Second,
		Factor:                1.5,
		Cap:                   30 * time.Second,
		MaxBackgroundAttempts: 5,
	}
}

// NextDelay implements RetryPolicy.
func (p Backoff) NextDelay(failures int, foreground bool) (time.Duration, bool) {
	if !foreground && p.MaxBackgroundAttempts > 0 && failures > p.MaxBackgroundAttempts {
		return 0, false
	}

	base := p.Base
	if base <= 0 {
		base = 3 * time.Second
	}
	factor := p.Factor
	if factor <= 1 {
		factor = 1.5
	}

	delay := time.Duration(float64(base) * math.Pow(factor, float64(failures-1)))
	if p.Cap > 0 && delay > p.Cap {
		delay = p.Cap
	}
	return delay, true
}
