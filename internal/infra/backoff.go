package infra

import (
	"time"
)

// CalculateBackoff returns the exponential backoff duration for a given retry count.
// Logic: base * 2^retryCount, capped at maxDelay.
// If retryCount is negative, it returns base.
func CalculateBackoff(retryCount int, base, maxDelay time.Duration) time.Duration {
	if retryCount < 0 {
		return base
	}

	// 2^30 already exceeds any sane cap; avoid shift overflow.
	if retryCount > 30 {
		return maxDelay
	}

	backoff := base * time.Duration(1<<retryCount)

	if backoff > maxDelay || backoff <= 0 {
		return maxDelay
	}

	return backoff
}
