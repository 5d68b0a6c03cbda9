// Package service holds the tire shop's business rules. Every method takes
// the shop id of the caller and never reads or writes another shop's rows.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

// notifier publishes change events after successful writes. A nil
// publisher disables publishing.
type notifier struct {
	publisher events.Publisher
	logger    *logrus.Entry
}

func newNotifier(publisher events.Publisher, component string) notifier {
	return notifier{publisher: publisher, logger: logging.New(component)}
}

// notify never fails the caller: the write already happened.
func (n notifier) notify(ctx context.Context, table string, op events.Op, shopID, id string) {
	if n.publisher == nil {
		return
	}
	ev := events.NewChangeEvent(ctx, table, op, shopID, id)
	if err := n.publisher.Publish(ctx, ev); err != nil {
		n.logger.WithFields(logging.Fields{
			"table":     table,
			"op":        op,
			"record_id": id,
			"error":     err.Error(),
		}).Error("Failed to publish change event")
	}
}

// readThrough serves a record from cache, falling back to load and filling
// the cache. Cache errors are logged and treated as misses. A nil cache
// always loads.
func readThrough[T any](ctx context.Context, cache repository.Cache[T], logger *logrus.Entry, table, shopID, id string, load func() (*T, error)) (*T, error) {
	if cache == nil {
		return load()
	}

	cached, err := cache.Get(ctx, shopID, id)
	if err != nil {
		logger.WithFields(logging.Fields{"table": table, "record_id": id, "error": err.Error()}).Warn("Cache read failed")
	}
	cacheResult(table, cached != nil)
	if cached != nil {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, shopID, id, v); err != nil {
		logger.WithFields(logging.Fields{"table": table, "record_id": id, "error": err.Error()}).Warn("Cache write failed")
	}
	return v, nil
}

func evict[T any](ctx context.Context, cache repository.Cache[T], logger *logrus.Entry, shopID, id string) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, shopID, id); err != nil {
		logger.WithFields(logging.Fields{"record_id": id, "error": err.Error()}).Warn("Cache evict failed")
	}
}

// cacheResult counts a read-through lookup.
func cacheResult(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(table, result).Inc()
}

type clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
