package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
)

// KafkaConsumer reads the changes topic and hands each event to its handlers.
// Reconnects and rebalances are left to kafka-go.
type KafkaConsumer struct {
	reader   *kafka.Reader
	handlers []Handler
	logger   *logrus.Entry
	stopCh   chan struct{}
}

func NewKafkaConsumer(cfg config.KafkaConfig, handlers ...Handler) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ChangesTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		handlers: handlers,
		logger:   logging.New("change-consumer"),
		stopCh:   make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.WithFields(logging.Fields{"handlers": len(c.handlers)}).Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to read message")
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

func (c *KafkaConsumer) Stop() error {
	close(c.stopCh)
	return c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.WithFields(logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}).Debug("Received message")

	ev, err := decode(msg)
	if err != nil {
		c.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Skipping malformed change event")
		return
	}
	metrics.ChangeEvents.WithLabelValues("consumed", ev.Table).Inc()

	if err := dispatch(ctx, c.handlers, ev); err != nil {
		c.logger.WithFields(logging.Fields{
			"event_id":  ev.ID,
			"table":     ev.Table,
			"record_id": ev.RecordID,
			"error":     err.Error(),
		}).Warn("Change handler failed")
	}
}
