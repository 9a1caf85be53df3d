package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/metrics"
)

type fakePublisher struct {
	got []Event
	err error
}

func (f *fakePublisher) Publish(_ context.Context, e Event) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestNew(t *testing.T) {
	e, err := New(ExpenseCreated, "g1", "e1", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, ExpenseCreated, e.Type)
	assert.Equal(t, "g1", e.GroupID)
	assert.Equal(t, "e1", e.EntityID)
	assert.False(t, e.OccurredAt.IsZero())
	assert.JSONEq(t, `{"n":1}`, string(e.Data))

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Contains(t, envelope, "occurredAt")
	assert.Contains(t, envelope, "entityId")

	_, err = New(ExpenseCreated, "g1", "e1", make(chan int))
	assert.Error(t, err)
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	okCounter := metrics.EventsPublished.WithLabelValues(SettlementRecorded, "ok")
	errCounter := metrics.EventsPublished.WithLabelValues(SettlementRecorded, "error")
	okBefore, errBefore := testutil.ToFloat64(okCounter), testutil.ToFloat64(errCounter)

	p := &fakePublisher{}
	Emit(ctx, p, SettlementRecorded, "g1", "s1", nil)
	require.Len(t, p.got, 1)
	assert.Equal(t, "s1", p.got[0].EntityID)
	assert.Nil(t, p.got[0].Data)

	// a broken broker is logged and counted, never surfaced
	Emit(ctx, &fakePublisher{err: errors.New("broker down")}, SettlementRecorded, "g1", "s2", nil)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(okCounter))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(errCounter))

	assert.NoError(t, Noop{}.Publish(ctx, Event{}))
}

func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("SPLITLEDGER_TEST_AMQP_URL")
	if url == "" {
		t.Skip("SPLITLEDGER_TEST_AMQP_URL not set")
	}

	const exchange = "splitledger-test"
	p, err := NewAMQPPublisher(url, exchange)
	require.NoError(t, err)
	defer p.Close()

	conn, err := amqp091.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "expense.*", exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	e, err := New(ExpenseCreated, "g1", "e1", nil)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	d := <-deliveries
	assert.Equal(t, ExpenseCreated, d.RoutingKey)
	var got Event
	require.NoError(t, json.Unmarshal(d.Body, &got))
	assert.Equal(t, "e1", got.EntityID)
}
