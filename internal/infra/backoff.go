package infra

import (
	"math"
	"time"
)

// CalculateBackoff returns the reconnect delay for the given retry count
// using exponential growth from base, capped at max.
func CalculateBackoff(retryCount int, base, max time.Duration) time.Duration {
	delay := base * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}
