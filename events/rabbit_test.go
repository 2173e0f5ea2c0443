package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pendingConfirm resolves when the test closes done.
type pendingConfirm struct {
	done chan struct{}
	ack  bool
}

func (c *pendingConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.done:
	}
	return c.ack, nil
}

type fakeChannel struct {
	sent     []amqp.Publishing
	keys     []string
	confirms []*pendingConfirm
	err      error
}

func (f *fakeChannel) publish(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	f.keys = append(f.keys, exchange+"/"+key)
	c := f.confirms[0]
	f.confirms = f.confirms[1:]
	return c, nil
}

func (f *fakeChannel) Close() error { return nil }

func acked() *pendingConfirm {
	c := &pendingConfirm{done: make(chan struct{}), ack: true}
	close(c.done)
	return c
}

func sampleEvent() Event {
	return Event{
		Type:       OrderCreated,
		Subject:    "local_ord_1",
		Local:      true,
		OccurredAt: time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRabbit_AbandonedConfirmDoesNotLeakIntoNextPublish(t *testing.T) {
	// GIVEN: the broker never confirms the first message
	slow := &pendingConfirm{done: make(chan struct{})}
	nacked := &pendingConfirm{done: make(chan struct{})}
	ch := &fakeChannel{confirms: []*pendingConfirm{slow, nacked}}
	r := &Rabbit{ch: ch, exchange: "backoffice_events"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := r.Publish(ctx, sampleEvent())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// WHEN: the late ack of the first message arrives while the second is nacked
	slow.ack = true
	close(slow.done)
	close(nacked.done)
	err = r.Publish(context.Background(), sampleEvent())

	// THEN: the second publish sees its own nack, not the stale ack
	assert.EqualError(t, err, "publish NACK from broker")
	assert.Len(t, ch.sent, 2)
}

func TestRabbit_PublishMessage(t *testing.T) {
	ch := &fakeChannel{confirms: []*pendingConfirm{acked()}}
	r := &Rabbit{ch: ch, exchange: "backoffice_events"}

	require.NoError(t, r.Publish(context.Background(), sampleEvent()))

	require.Len(t, ch.sent, 1)
	msg := ch.sent[0]
	assert.Equal(t, "backoffice_events/order.created", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "local_ord_1", msg.CorrelationId)
	assert.Equal(t, "backoffice", msg.Headers["x-source"])

	var got Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, OrderCreated, got.Type)
	assert.True(t, got.Local)
}

func TestRabbit_PublishError(t *testing.T) {
	r := &Rabbit{ch: &fakeChannel{err: amqp.ErrClosed}, exchange: "backoffice_events"}

	err := r.Publish(context.Background(), sampleEvent())

	assert.True(t, errors.Is(err, amqp.ErrClosed))
	assert.Error(t, r.Ping(), "no connection")
}
