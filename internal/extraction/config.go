package extraction

import (
	"fmt"
	"math"
)

// Config holds the tunable thresholds of the extraction engine.
type Config struct {
	MinAmount        int64   // smallest plausible total, inclusive
	MaxAmount        int64   // largest plausible total, inclusive
	TaxDivisor       int64   // total / divisor is the inclusive tax; 11 for a 10% rate
	PairAbsTolerance int64   // tax-ratio pairing: accepted absolute error
	PairRelTolerance float64 // tax-ratio pairing: accepted error relative to the total
}

// DefaultConfig returns the thresholds tuned for Japanese fuel receipts.
func DefaultConfig() Config {
	return Config{
		MinAmount:        100,
		MaxAmount:        100_000,
		TaxDivisor:       11,
		PairAbsTolerance: 30,
		PairRelTolerance: 0.02,
	}
}

// Validate reports the first inconsistent threshold
func (c Config) Validate() error {
	if c.MinAmount < 0 {
		return fmt.Errorf("min amount must not be negative: %d", c.MinAmount)
	}
	if c.MaxAmount < c.MinAmount {
		return fmt.Errorf("max amount %d is below min amount %d", c.MaxAmount, c.MinAmount)
	}
	if c.TaxDivisor <= 0 {
		return fmt.Errorf("tax divisor must be positive: %d", c.TaxDivisor)
	}
	if c.PairAbsTolerance < 0 || c.PairRelTolerance < 0 {
		return fmt.Errorf("pair tolerances must not be negative: %d, %g", c.PairAbsTolerance, c.PairRelTolerance)
	}
	return nil
}

// DeriveTax returns round(total / TaxDivisor), or 0 without a positive
// divisor.
func (c Config) DeriveTax(total int64) int64 {
	if c.TaxDivisor <= 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(c.TaxDivisor)))
}

func (c Config) inRange(v int64) bool {
	return v >= c.MinAmount && v <= c.MaxAmount
}

// pairAccepted reports whether a tax-ratio pairing error is small enough.
func (c Config) pairAccepted(diff, total int64) bool {
	if diff <= c.PairAbsTolerance {
		return true
	}
	if total <= 0 {
		return false
	}
	return float64(diff)/float64(total) <= c.PairRelTolerance
}
