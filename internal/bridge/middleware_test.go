// internal/bridge/middleware_test.go
package bridge_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/bridge/bridgetest"
)

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := bridgetest.NewRecorder().
		Respond(bridge.OpCreateElement, bridge.Handle(1)).
		Fail(bridge.OpGetChildren, errors.New("gone"))

	caller := bridge.Chain(rec, bridge.WithLogging(zap.New(core)))

	res, err := caller.Call(bridge.OpCreateElement, "div")
	require.NoError(t, err)
	assert.Equal(t, bridge.Handle(1), res)

	_, err = caller.Call(bridge.OpGetChildren, bridge.Handle(1))
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, bridge.OpCreateElement, entries[0].ContextMap()["op"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "bridge", entries[1].LoggerName)
}

func TestWithRateLimit_SpacesCalls(t *testing.T) {
	rec := bridgetest.NewRecorder()
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	caller := bridge.Chain(rec, bridge.WithRateLimit(limiter))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := caller.Call(bridge.OpLog, i)
		require.NoError(t, err)
	}
	// One token is available immediately; the next two wait ~20ms each.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Equal(t, 3, rec.Count())
}

func TestWithRateLimit_NilLimiterIsPassThrough(t *testing.T) {
	rec := bridgetest.NewRecorder()
	caller := bridge.WithRateLimit(nil)(rec)
	assert.Same(t, rec, caller)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) bridge.Middleware {
		return func(next bridge.Caller) bridge.Caller {
			return bridge.CallerFunc(func(op string, args ...any) (any, error) {
				order = append(order, name)
				return next.Call(op, args...)
			})
		}
	}
	caller := bridge.Chain(bridgetest.NewRecorder(), tag("outer"), tag("inner"))
	_, err := caller.Call(bridge.OpLog, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
