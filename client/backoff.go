package client

import (
	"math/rand/v2"
	"time"
)

const (
	// InitialRetryDelay is the base delay used when the directory rate limits us.
	InitialRetryDelay = 5 * time.Second
	// MaxRetryDelay caps the exponential growth of the retry delay.
	MaxRetryDelay = 600 * time.Second
)

// maxShift is the first exponent for which InitialRetryDelay<<n exceeds MaxRetryDelay.
const maxShift = 7

// ComputeBackoff returns a "full jitter" exponential backoff delay for the
// given attempt: min(MaxRetryDelay, InitialRetryDelay*2^attempt) * U(0,1).
func ComputeBackoff(attempt int) time.Duration {
	return ComputeBackoffWith(attempt, rand.Float64)
}

// ComputeBackoffWith is ComputeBackoff with an explicit random source.
// rnd must return values in [0, 1).
func ComputeBackoffWith(attempt int, rnd func() float64) time.Duration {
	ceiling := backoffCeiling(attempt)
	if rnd == nil {
		rnd = rand.Float64
	}

	factor := rnd()
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}

	return time.Duration(float64(ceiling) * factor)
}

func backoffCeiling(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= maxShift {
		return MaxRetryDelay
	}

	raw := InitialRetryDelay << uint(attempt)
	if raw > MaxRetryDelay {
		return MaxRetryDelay
	}
	return raw
}
