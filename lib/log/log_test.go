package log_test

import (
	"context"
	"testing"

	"cdr.dev/slog"
	"github.com/stretchr/testify/assert"

	"github.com/layoutqa/layoutqa/lib/log"
)

func TestWithTB(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	log.Info(ctx, "scored fixture", slog.F("fixture", "flow_small"))

	ctx = log.Leveled(ctx, slog.LevelDebug)
	log.Debug(ctx, "candidate filter", slog.F("kept", 3))
}

func TestWithDefaultKeepsExistingLogger(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	assert.Equal(t, ctx, log.WithDefault(ctx))
}
