package partition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/roach88/collage/internal/testutil"
)

func TestEnumerateEmitsSpanPerRule(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	spec := MustSpec("traced", Target{}, NewUnionRule("u", NewOpKindRule("ew"), NewHostRule("host")))
	_, err := NewEnumerator().Enumerate(context.Background(), testutil.LetAndCall(), spec)
	require.NoError(t, err)

	ruleSpans := map[string]int64{}
	var passSpans int
	for _, s := range sr.Ended() {
		switch s.Name() {
		case "partition.Enumerate":
			passSpans++
		case "partition.rule":
			var name string
			var count int64
			for _, kv := range s.Attributes() {
				switch kv.Key {
				case attribute.Key("rule.name"):
					name = kv.Value.AsString()
				case attribute.Key("candidates"):
					count = kv.Value.AsInt64()
				}
			}
			ruleSpans[name] = count
		}
	}

	assert.Equal(t, 1, passSpans)
	assert.Equal(t, map[string]int64{"u": 2, "ew": 1, "host": 1}, ruleSpans)
}

func TestInitMetricsIdempotent(t *testing.T) {
	assert.NoError(t, initMetrics())
	assert.NoError(t, initMetrics())
	assert.NotNil(t, candidatesTotal)
}
