package main

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNextLevel(t *testing.T) {
	tests := []struct {
		current zapcore.Level
		want    zapcore.Level
	}{
		{zapcore.DebugLevel, zapcore.InfoLevel},
		{zapcore.InfoLevel, zapcore.WarnLevel},
		{zapcore.WarnLevel, zapcore.ErrorLevel},
		{zapcore.ErrorLevel, zapcore.DebugLevel},
		{zapcore.FatalLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := nextLevel(tt.current); got != tt.want {
			t.Errorf("nextLevel(%v) = %v, want %v", tt.current, got, tt.want)
		}
	}
}
