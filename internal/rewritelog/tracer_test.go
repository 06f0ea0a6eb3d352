package rewritelog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/rewritelog"
)

func TestInitTracer_ReturnsUsableTracerAndShutdown(t *testing.T) {
	t.Parallel()

	tracer, shutdown := rewritelog.InitTracer()
	require.NotNil(t, tracer)
	require.NotNil(t, shutdown)

	_, span := tracer.Start(context.Background(), "test-span")
	span.End()

	assert.NoError(t, shutdown(context.Background()))
}
