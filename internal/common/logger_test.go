package common

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
		ok    bool
	}{
		{name: "debug", level: "debug", want: slog.LevelDebug, ok: true},
		{name: "info", level: "info", want: slog.LevelInfo, ok: true},
		{name: "warn", level: "warn", want: slog.LevelWarn, ok: true},
		{name: "error", level: "error", want: slog.LevelError, ok: true},
		{name: "unknown", level: "trace", ok: false},
		{name: "empty", level: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.level)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()

	require.NoError(t, SetupLogger(slog.LevelWarn, "console"))
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelWarn))

	require.NoError(t, SetupLogger(slog.LevelDebug, "json"))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelDebug))

	assert.ErrorIs(t, SetupLogger(slog.LevelInfo, "yaml"), ErrInvalidConfig)
}
