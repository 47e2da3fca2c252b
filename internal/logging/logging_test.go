package logging

import "testing"

func TestNewDefaultsUnrecognizedLevelToInfo(t *testing.T) {
	l := New("bogus", "console")
	if !l.Core().Enabled(2) { // zapcore.ErrorLevel
		t.Fatal("error level should always be enabled")
	}
	if !l.Core().Enabled(0) || l.Core().Enabled(-1) { // zapcore.InfoLevel, zapcore.DebugLevel
		t.Fatal("unrecognized level should default to info: info enabled, debug disabled")
	}
}

func TestEmitEffectDoesNotPanicOnEmptyData(t *testing.T) {
	l := New("debug", "json")
	l.EmitEffect("hello", "info", nil)
	l.EmitEffect("hello", "warn", map[string]interface{}{"port": 1})
	l.EmitEffect("hello", "bogus-level", map[string]interface{}{"a": 1, "b": 2})
}
