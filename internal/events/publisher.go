package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
)

var _ Publisher = (*KafkaPublisher)(nil)

// batchTimeout bounds how long a write waits for more messages. Publish is
// called inside requests, so it stays small.
const batchTimeout = 10 * time.Millisecond

// KafkaPublisher writes change events to the changes topic, keyed by record
// id so that changes to one row stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *logrus.Entry
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.ChangesTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.ChangesTopic,
		logger: logging.New("change-publisher"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *ChangeEvent) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.ChangeEvents.WithLabelValues("publish_failed", ev.Table).Inc()
		p.logger.WithFields(logging.Fields{
			"event_id":  ev.ID,
			"table":     ev.Table,
			"op":        ev.Op,
			"record_id": ev.RecordID,
			"error":     err.Error(),
		}).Error("Failed to publish change event")
		return errors.Wrap(err, "write change event")
	}

	metrics.ChangeEvents.WithLabelValues("published", ev.Table).Inc()
	p.logger.WithFields(logging.Fields{
		"event_id":  ev.ID,
		"table":     ev.Table,
		"op":        ev.Op,
		"record_id": ev.RecordID,
	}).Debug("Change event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

func encode(ev *ChangeEvent) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode change event")
	}
	return kafka.Message{
		Key:   []byte(ev.RecordID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "table", Value: []byte(ev.Table)},
			{Key: "op", Value: []byte(ev.Op)},
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "correlation_id", Value: []byte(ev.CorrelationID)},
		},
	}, nil
}

func decode(msg kafka.Message) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return nil, errors.Wrap(err, "decode change event")
	}
	if ev.Table == "" || ev.ShopID == "" {
		return nil, errors.New("change event without table or shop")
	}
	return &ev, nil
}

// LocalPublisher hands events straight to in-process handlers. It is used
// when Kafka is disabled and in tests.
type LocalPublisher struct {
	mu       sync.Mutex
	handlers []Handler
	Events   []*ChangeEvent
}

func NewLocalPublisher(handlers ...Handler) *LocalPublisher {
	return &LocalPublisher{handlers: handlers}
}

func (p *LocalPublisher) Publish(ctx context.Context, ev *ChangeEvent) error {
	p.mu.Lock()
	p.Events = append(p.Events, ev)
	handlers := p.handlers
	p.mu.Unlock()

	return dispatch(ctx, handlers, ev)
}

func (p *LocalPublisher) Close() error { return nil }

// Published returns a copy of what was published so far.
func (p *LocalPublisher) Published() []*ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ChangeEvent(nil), p.Events...)
}

// dispatch runs every handler and returns the first error.
func dispatch(ctx context.Context, handlers []Handler, ev *ChangeEvent) error {
	var first error
	for _, h := range handlers {
		if err := h.HandleChange(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
