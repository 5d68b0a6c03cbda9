package events

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
)

func TestNewChangeEvent_CarriesCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-42")

	ev := NewChangeEvent(ctx, TableTasks, OpInsert, "shop-1", "task-1")

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "req-42", ev.CorrelationID)
	assert.Equal(t, TableTasks, ev.Table)
	assert.Equal(t, OpInsert, ev.Op)
	assert.Empty(t, CorrelationID(context.Background()))
}

func TestEncodeDecode(t *testing.T) {
	ev := NewChangeEvent(context.Background(), TableInventory, OpUpdate, "shop-1", "tire-9")

	msg, err := encode(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte("tire-9"), msg.Key)
	assert.Contains(t, msg.Headers, kafka.Header{Key: "table", Value: []byte(TableInventory)})

	back, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, ev.RecordID, back.RecordID)
	assert.Equal(t, ev.Op, back.Op)
	assert.True(t, ev.Timestamp.Equal(back.Timestamp))
}

func TestDecode_Rejects(t *testing.T) {
	for name, value := range map[string]string{
		"not json":    "{",
		"no table":    `{"shop_id":"s","op":"insert"}`,
		"no shop":     `{"table":"tasks","op":"insert"}`,
		"empty value": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decode(kafka.Message{Value: []byte(value)})
			assert.Error(t, err)
		})
	}
}

func TestLocalPublisher_DispatchesToAllHandlers(t *testing.T) {
	var seen []string
	failing := HandlerFunc(func(ctx context.Context, ev *ChangeEvent) error {
		seen = append(seen, "failing")
		return errors.New("boom")
	})
	recording := HandlerFunc(func(ctx context.Context, ev *ChangeEvent) error {
		seen = append(seen, "recording")
		return nil
	})

	p := NewLocalPublisher(failing, recording)
	err := p.Publish(context.Background(), NewChangeEvent(context.Background(), TableOrders, OpInsert, "s", "o"))

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"failing", "recording"}, seen)
	assert.Len(t, p.Published(), 1)
}

func TestHub_FiltersByShopAndTable(t *testing.T) {
	h := NewHub()
	tasks := h.Subscribe("shop-1", TableTasks)
	defer tasks.Close()
	all := h.Subscribe("shop-1")
	defer all.Close()
	other := h.Subscribe("shop-2")
	defer other.Close()

	ctx := context.Background()
	require.NoError(t, h.HandleChange(ctx, NewChangeEvent(ctx, TableTasks, OpInsert, "shop-1", "t1")))
	require.NoError(t, h.HandleChange(ctx, NewChangeEvent(ctx, TableOrders, OpUpdate, "shop-1", "o1")))

	assert.Len(t, tasks.C, 1)
	assert.Len(t, all.C, 2)
	assert.Len(t, other.C, 0)

	ev := <-tasks.C
	assert.Equal(t, "t1", ev.RecordID)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("shop-1")
	defer s.Close()

	ctx := context.Background()
	total := defaultSubscriptionBuffer + 3
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			_ = h.HandleChange(ctx, NewChangeEvent(ctx, TableTasks, OpUpdate, "shop-1", "t"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub blocked on a full subscriber")
	}
	assert.Equal(t, 3, s.Dropped())
	assert.Len(t, s.C, defaultSubscriptionBuffer)
}

func TestSubscription_Close(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("shop-1")
	assert.Equal(t, 1, h.Len())

	s.Close()
	s.Close()

	assert.Equal(t, 0, h.Len())
	_, open := <-s.C
	assert.False(t, open)
}

func TestEncode_Headers(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-7")
	ev := NewChangeEvent(ctx, TableOrders, OpInsert, "shop-1", "order-1")

	msg, err := encode(ev)
	require.NoError(t, err)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{
		"table":          TableOrders,
		"op":             string(OpInsert),
		"event_id":       ev.ID,
		"correlation_id": "req-7",
	}, headers)
	assert.Equal(t, []byte("order-1"), msg.Key)
}

func TestNewKafkaPublisher_FlushesWithinRequest(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, ChangesTopic: "tireshop.changes"})
	defer p.Close()

	assert.Equal(t, "tireshop.changes", p.writer.Topic)
	assert.LessOrEqual(t, p.writer.BatchTimeout, 50*time.Millisecond)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}
