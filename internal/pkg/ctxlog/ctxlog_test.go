package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), base)
	ctx, logger := With(ctx, "refresh_id", "abc")
	logger.Info("hello")

	assert.Contains(t, buf.String(), `"refresh_id":"abc"`)
	assert.Equal(t, logger, FromContext(ctx))
}
