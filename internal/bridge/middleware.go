// internal/bridge/middleware.go
package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WithLogging logs every call at debug level, and failed calls at warn level.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("bridge")
	return func(next Caller) Caller {
		return CallerFunc(func(name string, args ...any) (any, error) {
			start := time.Now()
			result, err := next.Call(name, args...)
			fields := []zap.Field{
				zap.String("op", name),
				zap.Int("argc", len(args)),
				zap.Duration("took", time.Since(start)),
			}
			if err != nil {
				log.Warn("Bridge call failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			log.Debug("Bridge call", fields...)
			return result, nil
		})
	}
}

// WithRateLimit blocks each call until the limiter admits it. Used in front of remote
// browsers that should not receive bursts of protocol commands.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next Caller) Caller {
		if limiter == nil {
			return next
		}
		return CallerFunc(func(name string, args ...any) (any, error) {
			// The bridge has no cancellation; the wait ends only when a token is available.
			if err := limiter.Wait(context.Background()); err != nil {
				return nil, &CallError{Op: name, Err: err}
			}
			return next.Call(name, args...)
		})
	}
}
