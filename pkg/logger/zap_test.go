package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestWrapWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core)).With(zap.String("component", "ledger"))

	l.Debug("dropped")
	l.Info("stock adjusted", zap.Int64("item_id", 7))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "stock adjusted", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "ledger", ctx["component"])
		assert.Equal(t, int64(7), ctx["item_id"])
	}
}

func TestNewZapLogger(t *testing.T) {
	l := NewZapLogger(&ZapLoggerConfig{IsDevelopment: true, Encoding: "console", Level: "debug"})
	assert.NotNil(t, l)
	l.Debug("hello")
}
