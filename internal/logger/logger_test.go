package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/gw/optlog/internal/config"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		log, err := New(config.Log{Level: tc.level, Encoding: "json"})
		if err != nil {
			t.Fatalf("%s: %v", tc.level, err)
		}
		if !log.Core().Enabled(tc.want) || (tc.want > zapcore.DebugLevel && log.Core().Enabled(tc.want-1)) {
			t.Fatalf("%s: level not applied", tc.level)
		}
	}
}

func TestNewConsole(t *testing.T) {
	if _, err := New(config.Log{Level: "info", Encoding: "console", Development: true}); err != nil {
		t.Fatal(err)
	}
}
