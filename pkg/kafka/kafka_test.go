package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

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

func message(t *testing.T, offset int64, eventType, id string, data any) kafka.Message {
	t.Helper()
	e, err := NewEvent(eventType, id, "test", data)
	require.NoError(t, err)
	raw, err := e.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "watchvine.catalog.product.upserted", Offset: offset, Value: raw}
}

func runUntil(t *testing.T, c *Consumer, r *fakeReader, wantCommits int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(r.commits()) >= wantCommits }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, r.closed)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "watchvine.catalog.product.deleted", Topic("catalog", "product", "deleted"))
}

func TestUnmarshalEvent_RejectsMissingFields(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event_type":"product.upserted"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate_id")
}

func TestEvent_UnmarshalData(t *testing.T) {
	e, err := NewEvent("product.upserted", "p1", "scraper", map[string]string{"name": "Classic Watch"})
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, e.UnmarshalData(&got))
	assert.Equal(t, "Classic Watch", got["name"])

	bare, err := NewEvent("product.deleted", "p1", "scraper", nil)
	require.NoError(t, err)
	assert.Error(t, bare.UnmarshalData(&got))
}

func TestConsumer_DispatchesByEventType(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		message(t, 1, "product.upserted", "p1", map[string]string{"name": "a"}),
		message(t, 2, "product.deleted", "p2", nil),
		message(t, 3, "product.repriced", "p3", nil),
	}}
	c := newConsumer(r, "catalog-search", logger.Discard())

	var mu sync.Mutex
	var seen []string
	record := func(ctx context.Context, e *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventType+":"+e.AggregateID)
		return nil
	}
	c.Handle("product.upserted", record)
	c.Handle("product.deleted", record)

	runUntil(t, c, r, 3)

	assert.Equal(t, []string{"product.upserted:p1", "product.deleted:p2"}, seen)
	assert.Equal(t, []int64{1, 2, 3}, r.commits())
}

func TestConsumer_RetriesThenSkips(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		message(t, 7, "product.upserted", "p1", nil),
		{Offset: 8, Value: []byte("not json")},
	}}
	c := newConsumer(r, "g", logger.Discard())
	c.backoff = time.Millisecond

	attempts := 0
	c.Handle("product.upserted", func(ctx context.Context, e *Event) error {
		attempts++
		return errors.New("store down")
	})

	runUntil(t, c, r, 2)

	assert.Equal(t, maxHandlerRetries, attempts)
	assert.Equal(t, []int64{7, 8}, r.commits())
}

func TestProducer_PublishKeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}

	e, err := NewEvent("product.indexed", "p9", "indexer", nil)
	require.NoError(t, err)
	e.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "watchvine.catalog.product.indexed", e))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("p9"), w.msgs[0].Key)
	assert.Len(t, w.msgs[0].Headers, 3)
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: logger.Discard()}
	e, _ := NewEvent("product.indexed", "p9", "indexer", nil)

	err := p.Publish(context.Background(), "t", e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to t")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
