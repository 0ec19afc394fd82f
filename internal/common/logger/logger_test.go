package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_FieldsAndChildren(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.With(map[string]interface{}{"taskType": "interpret-command"})
	child.Info("intent interpreted", map[string]interface{}{"action": "transfer"})
	log.WithError(fmt.Errorf("boom")).Error("stage failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "interpret-command", ctx["taskType"])
		assert.Equal(t, "transfer", ctx["action"])

		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	}
}

func TestMapToZapFields_ErrorValues(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"cause": fmt.Errorf("timeout")})
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "cause", fields[0].Key)
		assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	}
	assert.Nil(t, mapToZapFields(nil))
}

func TestNew_FallsBackOnBadOutput(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/forbidden/log.txt")
	assert.NotNil(t, l)
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().Info("ignored", map[string]interface{}{"k": 1})
	NewTestLogger(t).Debug("visible in -v", nil)
}
