package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	queue     []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func withTracing(t *testing.T) {
	t.Helper()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestProducerPublishInjectsTraceContext(t *testing.T) {
	withTracing(t)
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.placed"}

	ctx, span := otel.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	require.NoError(t, p.Publish(ctx, "order-1", map[string]string{"order_id": "order-1"}))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "order-1", string(msg.Key))
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "order-1", body["order_id"])
	assert.NotEmpty(t, newHeaderCarrier(&msg).Get("traceparent"))
}

func TestProducerPublishWrapsWriteError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("broker down")}, topic: "order.placed"}
	err := p.Publish(context.Background(), "k", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestConsumerCommitsHandledMessages(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Value: []byte("a")}, {Value: []byte("b")}}}
	c := &Consumer{reader: r, topic: "order.placed", groupID: "g"}

	var seen []string
	err := c.Consume(context.Background(), func(_ context.Context, payload []byte) error {
		seen = append(seen, string(payload))
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Len(t, r.committed, 2)
}

func TestConsumerStopsOnHandlerError(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Value: []byte("a")}}}
	c := &Consumer{reader: r, topic: "order.placed", groupID: "g"}

	boom := errors.New("boom")
	err := c.Consume(context.Background(), func(context.Context, []byte) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Empty(t, r.committed)
}

func TestHeaderCarrierSetOverwrites(t *testing.T) {
	msg := kafka.Message{}
	c := newHeaderCarrier(&msg)
	c.Set("k", "v1")
	c.Set("k", "v2")
	assert.Equal(t, "v2", c.Get("k"))
	assert.Equal(t, []string{"k"}, c.Keys())
}
