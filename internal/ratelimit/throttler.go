package ratelimit

import "time"

// Throttler multiplier ladder. Sustained high error rates signal the source is
// throttling the whole client, so the inter-request window stretches beyond
// what per-request retry alone provides; a clean stretch relaxes it back.
const (
	criticalErrorRate = 50.0
	highErrorRate     = 30.0
	moderateErrorRate = 15.0

	criticalMultiplier = 3.0
	highMultiplier     = 2.0
	moderateMultiplier = 1.5
	normalMultiplier   = 1.0
)

// Throttler adapts the randomized inter-request delay window to the observed
// error rate. Like the Limiter it is scoped to a single batch invocation.
type Throttler struct {
	baseMin    time.Duration
	baseMax    time.Duration
	multiplier float64
}

// NewThrottler creates a throttler over the given base delay window.
func NewThrottler(baseMin, baseMax time.Duration) *Throttler {
	return &Throttler{baseMin: baseMin, baseMax: baseMax, multiplier: normalMultiplier}
}

// AdjustSpeed sets the multiplier from the current error rate percentage.
func (t *Throttler) AdjustSpeed(errorRate float64) {
	switch {
	case errorRate > criticalErrorRate:
		t.multiplier = criticalMultiplier
	case errorRate > highErrorRate:
		t.multiplier = highMultiplier
	case errorRate > moderateErrorRate:
		t.multiplier = moderateMultiplier
	default:
		t.multiplier = normalMultiplier
	}
}

// Delays returns the current stretched delay window.
func (t *Throttler) Delays() (min, max time.Duration) {
	return time.Duration(float64(t.baseMin) * t.multiplier),
		time.Duration(float64(t.baseMax) * t.multiplier)
}

// Multiplier returns the current speed multiplier, never below 1.0.
func (t *Throttler) Multiplier() float64 {
	return t.multiplier
}
