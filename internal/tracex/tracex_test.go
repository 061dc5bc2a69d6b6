package tracex

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitExportsSpans(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	shutdown, err := Init(ctx, &buf, "optsim-test", "0.0.1")
	require.NoError(t, err)

	_, span := Tracer().Start(ctx, "unit.span")
	span.End()
	require.NoError(t, shutdown(ctx))

	out := buf.String()
	assert.Contains(t, out, "unit.span")
	assert.Contains(t, out, "optsim-test")
}

func TestOrGlobal(t *testing.T) {
	own := noop.NewTracerProvider().Tracer("x")
	assert.Equal(t, own, OrGlobal(own))
	assert.NotNil(t, OrGlobal(nil))
}
