package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/logging"
	"github.com/smukkama/city-analytics/internal/protocol"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func alert(id, city string) *protocol.AlertMessage {
	return &protocol.AlertMessage{
		ID:    id,
		City:  city,
		Alert: analytics.Alert{Type: analytics.AlertTypePollution, Severity: analytics.SeverityHigh, Message: "AQI above 150"},
	}
}

func TestProducer_PublishAlerts(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "city.analytics.alerts"}

	require.NoError(t, p.PublishAlerts(context.Background(), []*protocol.AlertMessage{
		alert("a1", "chennai"),
		alert("a2", ""),
	}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "chennai", string(w.msgs[0].Key))
	assert.Equal(t, "all", string(w.msgs[1].Key))

	decoded, err := protocol.DecodeAlertMessage(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "a1", decoded.ID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_EmptyBatchWritesNothing(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := &Producer{writer: w}

	assert.NoError(t, p.PublishAlerts(context.Background(), nil))
}

func TestProducer_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}

	err := p.PublishAlerts(context.Background(), []*protocol.AlertMessage{alert("a1", "pune")})
	assert.ErrorIs(t, err, boom)
}

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func encoded(t *testing.T, msg *protocol.AlertMessage, offset int64) kafka.Message {
	t.Helper()
	value, err := protocol.EncodeAlertMessage(msg)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			encoded(t, alert("a1", "chennai"), 1),
			{Offset: 2, Value: []byte("garbage")},
			encoded(t, alert("a3", "bengaluru"), 3),
			encoded(t, alert("a4", "pune"), 4),
		},
	}
	c := &Consumer{reader: r, logger: logging.Discard()}

	var handled []string
	err := c.Run(ctx, func(_ context.Context, msg *protocol.AlertMessage) error {
		handled = append(handled, msg.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a3", "a4"}, handled)
	assert.Equal(t, []int64{1, 2, 3, 4}, r.committed)
}

func TestConsumer_HandlerErrorStopsBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	down := errors.New("downstream unavailable")
	r := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			encoded(t, alert("a1", "chennai"), 1),
			encoded(t, alert("a2", "retry"), 2),
			encoded(t, alert("a3", "pune"), 3),
		},
	}
	c := &Consumer{reader: r, logger: logging.Discard()}

	var handled []string
	err := c.Run(ctx, func(_ context.Context, msg *protocol.AlertMessage) error {
		handled = append(handled, msg.ID)
		if msg.City == "retry" {
			return down
		}
		return nil
	})

	require.ErrorIs(t, err, down)
	assert.ErrorContains(t, err, "offset 2")
	assert.Equal(t, []string{"a1", "a2"}, handled)
	assert.Equal(t, []int64{1}, r.committed, "nothing at or past the failed offset is committed")
	assert.Len(t, r.queue, 1)
}

type brokenReader struct{ fakeReader }

func (brokenReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("group coordinator not available")
}

func TestConsumer_FetchError(t *testing.T) {
	c := &Consumer{reader: &brokenReader{}, logger: logging.Discard()}

	err := c.Run(context.Background(), func(context.Context, *protocol.AlertMessage) error { return nil })
	assert.ErrorContains(t, err, "failed to fetch message")
}

type fakeAdmin struct {
	req  *kafka.CreateTopicsRequest
	errs map[string]error
	err  error
}

func (a *fakeAdmin) CreateTopics(_ context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error) {
	a.req = req
	if a.err != nil {
		return nil, a.err
	}
	return &kafka.CreateTopicsResponse{Errors: a.errs}, nil
}

func TestEnsureTopic(t *testing.T) {
	ctx := context.Background()

	admin := &fakeAdmin{}
	require.NoError(t, ensureTopic(ctx, admin, "city.analytics.alerts", 3, 1))
	require.Len(t, admin.req.Topics, 1)
	assert.Equal(t, "city.analytics.alerts", admin.req.Topics[0].Topic)
	assert.Equal(t, 3, admin.req.Topics[0].NumPartitions)
	assert.Equal(t, 1, admin.req.Topics[0].ReplicationFactor)

	exists := &fakeAdmin{errs: map[string]error{"city.analytics.alerts": kafka.TopicAlreadyExists}}
	assert.NoError(t, ensureTopic(ctx, exists, "city.analytics.alerts", 3, 1))

	rejected := &fakeAdmin{errs: map[string]error{"city.analytics.alerts": kafka.InvalidReplicationFactor}}
	assert.ErrorIs(t, ensureTopic(ctx, rejected, "city.analytics.alerts", 3, 5), kafka.InvalidReplicationFactor)

	unreachable := &fakeAdmin{err: errors.New("dial tcp: connection refused")}
	assert.ErrorContains(t, ensureTopic(ctx, unreachable, "city.analytics.alerts", 3, 1), "failed to create topic")

	assert.ErrorContains(t, EnsureTopic(ctx, nil, "city.analytics.alerts", 3, 1), "no kafka brokers")
}
