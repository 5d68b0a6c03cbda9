package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
)

// evicter is the part of a cache an invalidator needs.
type evicter interface {
	Delete(ctx context.Context, shopID, id string) error
}

// CacheInvalidator evicts the cached copy of a row when another instance
// reports that it changed. Inserts are ignored: nothing is cached yet.
type CacheInvalidator struct {
	caches map[string]evicter
	logger *logrus.Entry
}

var _ events.Handler = (*CacheInvalidator)(nil)

func NewCacheInvalidator(shops *ShopCache, tires *TireCache, services *ServiceCache) *CacheInvalidator {
	return &CacheInvalidator{
		caches: map[string]evicter{
			events.TableShops:     shops,
			events.TableInventory: tires,
			events.TableServices:  services,
		},
		logger: logging.New("cache-invalidator"),
	}
}

func (i *CacheInvalidator) HandleChange(ctx context.Context, ev *events.ChangeEvent) error {
	if ev.Op == events.OpInsert {
		return nil
	}
	c, ok := i.caches[ev.Table]
	if !ok {
		return nil
	}

	if err := c.Delete(ctx, ev.ShopID, ev.RecordID); err != nil {
		return err
	}
	i.logger.WithFields(logging.Fields{
		"table":     ev.Table,
		"record_id": ev.RecordID,
	}).Debug("Evicted cached record")
	return nil
}
