package utils

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"

	"golang-backtest/pkg/logger"
)

// ToPointer returns a pointer to the given value.
func ToPointer[T any](value T) *T {
	return &value
}

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging the
// caller when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// FormatPercentage renders a signed percentage with one decimal.
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}
