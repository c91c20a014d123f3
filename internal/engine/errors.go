package engine

import (
	"errors"
	"fmt"

	"lognormPool/internal/curve"
)

var (
	// ErrOutOfRange reports a trade that would move inventory past the last
	// priced segment. A smaller amount may succeed.
	ErrOutOfRange = errors.New("swap out of range")
	// ErrNotConfigured reports a quote against an engine with no curve.
	ErrNotConfigured = errors.New("engine not configured")
	// ErrInvalidAmount reports a non-positive or unset swap amount.
	ErrInvalidAmount = fmt.Errorf("swap amount must be positive: %w", curve.ErrInvalidParameters)
)

// IsRetriable reports whether the same request could succeed with a smaller
// amount. Nothing is retried inside the engine.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}
