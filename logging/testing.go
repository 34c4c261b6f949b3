package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger returns a logger that emits Debug+ logs through the test's
// own logging sink, so output only appears on failure or with -v.
func NewTestLogger(tb testing.TB) Logger {
	base := zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel))
	return &impl{base.Sugar()}
}
