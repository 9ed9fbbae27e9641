package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"ecagent-hq/ecagent/pkg/engine/formula"
)

// Calculator evaluates quantity formulas with a fallback quantity. Parsed
// formulas are cached, so one Calculator can serve many runs.
type Calculator struct {
	defaultQuantity float64
	logger          *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedFormula
}

type cachedFormula struct {
	expr *formula.Expr
	err  error
}

// NewCalculator creates a calculator that falls back to defaultQuantity.
func NewCalculator(defaultQuantity float64, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		defaultQuantity: defaultQuantity,
		logger:          logger,
		cache:           make(map[string]cachedFormula),
	}
}

// Calculate evaluates src against bindings. On any failure it returns the
// default quantity together with the error describing why; callers record the
// error as an annotation and carry on. Results must be positive.
func (c *Calculator) Calculate(src string, bindings formula.Bindings) (float64, error) {
	expr, err := c.parse(src)
	if err != nil {
		return c.fallback(src, err)
	}

	v, err := expr.Eval(bindings)
	if err != nil {
		return c.fallback(src, err)
	}
	if v <= 0 {
		return c.fallback(src, fmt.Errorf("quantity %s is not positive", formatFloat(v)))
	}
	return v, nil
}

// Check parses src without evaluating it.
func (c *Calculator) Check(src string) error {
	_, err := c.parse(src)
	return err
}

func (c *Calculator) parse(src string) (*formula.Expr, error) {
	c.mu.RLock()
	cached, ok := c.cache[src]
	c.mu.RUnlock()
	if ok {
		return cached.expr, cached.err
	}

	expr, err := formula.Parse(src)

	c.mu.Lock()
	c.cache[src] = cachedFormula{expr: expr, err: err}
	c.mu.Unlock()

	return expr, err
}

func (c *Calculator) fallback(src string, err error) (float64, error) {
	c.logger.Warn("quantity formula failed, using default quantity",
		"formula", src,
		"default", c.defaultQuantity,
		"error", err,
	)
	return c.defaultQuantity, err
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
