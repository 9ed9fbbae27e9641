package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is returned when an EngineConfig fails validation.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// PriceSource supplies a historical unit price for a pay item when the rule
// does not declare one.
type PriceSource interface {
	// UnitPrice returns the price and true when one is known.
	UnitPrice(itemNumber string) (float64, bool, error)
}

// Observer receives engine events for instrumentation.
type Observer interface {
	RuleEvaluated(ruleID string, fired bool)
	QuantityDefaulted(ruleID string)
	RunCompleted(duration time.Duration, rulesFired int)
}

// EngineConfig contains configuration for the recommendation engine.
type EngineConfig struct {
	// DefaultQuantity replaces a quantity whose formula cannot be evaluated.
	// Default: 1.0.
	DefaultQuantity float64

	// Clock supplies the output timestamp.
	// Default: time.Now in UTC.
	Clock func() time.Time

	// Prices fills in missing unit costs. Optional.
	Prices PriceSource

	// Observer receives per-rule and per-run events. Optional.
	Observer Observer
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultQuantity: 1.0,
		Clock:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the timestamp source.
func (c *EngineConfig) WithClock(clock func() time.Time) *EngineConfig {
	c.Clock = clock
	return c
}

// WithPrices sets the historical price source.
func (c *EngineConfig) WithPrices(prices PriceSource) *EngineConfig {
	c.Prices = prices
	return c
}

// WithObserver sets the instrumentation observer.
func (c *EngineConfig) WithObserver(obs Observer) *EngineConfig {
	c.Observer = obs
	return c
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if !(c.DefaultQuantity > 0) || math.IsInf(c.DefaultQuantity, 0) {
		return fmt.Errorf("%w: default quantity must be a positive number", ErrInvalidConfig)
	}
	if c.Clock == nil {
		return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
	}
	return nil
}
