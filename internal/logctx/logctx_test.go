package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_DefaultWhenMissing(t *testing.T) {
	require.Same(t, slog.Default(), From(context.Background()))
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("request_id", "r1"))
	ctx := Into(context.Background(), l)

	From(ctx).Info("hello")
	require.Contains(t, buf.String(), "request_id=r1")
}
