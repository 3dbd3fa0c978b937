package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSession_Spans(t *testing.T) {
	recorder := withRecorder(t)
	provider := &recordingProvider{failFor: map[string]error{"urlB": errors.New("gone")}}
	sess, _, _ := newTestSession(t, Config{Records: twoItems(), Provider: provider})
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.Error(t, sess.Decide(ctx, "1"))

	var names []string
	var failed []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
		if s.Status().Code == codes.Error {
			failed = append(failed, s.Name())
		}
	}
	assert.Equal(t, []string{"classify.display", "classify.decide", "classify.display"}, names)
	assert.Equal(t, []string{"classify.display"}, failed)
}

func TestFanOut(t *testing.T) {
	var seen []string
	obs := Observers(
		ObserverFunc(func(id string, _ Item, label string) { seen = append(seen, "a:"+id+"="+label) }),
		nil,
		ObserverFunc(func(id string, _ Item, label string) { seen = append(seen, "b:"+id+"="+label) }),
	)
	obs.Decided("urlA", Item{Identifier: "urlA"}, "1")
	assert.Equal(t, []string{"a:urlA=1", "b:urlA=1"}, seen)

	var totals []int
	sink := ProgressSinks(nil, ProgressFunc(func(_, total int, _ Row) { totals = append(totals, total) }))
	sink.Progress(1, 5, Row{"urlA", "1"})
	assert.Equal(t, []int{5}, totals)
}
