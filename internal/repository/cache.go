package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/draft"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

const defaultCacheTTL = 5 * time.Minute

// Key prefixes, one per cached table. Keys are <prefix>:<shop>:<id>.
const (
	ShopKeyPrefix    = "shop"
	TireKeyPrefix    = "tire"
	ServiceKeyPrefix = "service"
	draftKeyPrefix   = "draft"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func cacheKey(prefix, shopID, id string) string {
	return prefix + ":" + shopID + ":" + id
}

// RedisCache is a JSON read-through cache for one record type.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logrus.Entry
}

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logging.New(prefix + "-cache"),
	}
}

// Get returns nil, nil on a miss.
func (c *RedisCache[T]) Get(ctx context.Context, shopID, id string) (*T, error) {
	data, err := c.client.Get(ctx, cacheKey(c.prefix, shopID, id)).Bytes()
	if err == redis.Nil {
		c.logger.WithFields(logging.Fields{"id": id}).Debug("Cache miss")
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get")
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "decode cached value")
	}
	c.logger.WithFields(logging.Fields{"id": id}).Debug("Cache hit")
	return &v, nil
}

func (c *RedisCache[T]) Set(ctx context.Context, shopID, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode cached value")
	}
	return errors.Wrap(c.client.Set(ctx, cacheKey(c.prefix, shopID, id), data, c.ttl).Err(), "cache set")
}

func (c *RedisCache[T]) Delete(ctx context.Context, shopID, id string) error {
	return errors.Wrap(c.client.Del(ctx, cacheKey(c.prefix, shopID, id)).Err(), "cache delete")
}

type (
	ShopCache    = RedisCache[models.Shop]
	TireCache    = RedisCache[models.Tire]
	ServiceCache = RedisCache[models.Service]
)

// RedisDraftStore keeps drafts as JSON documents that expire after ttl of inactivity.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl, logger: logging.New("draft-store")}
}

func (s *RedisDraftStore) Get(ctx context.Context, shopID, id string) (*draft.OrderDraft, error) {
	data, err := s.client.Get(ctx, cacheKey(draftKeyPrefix, shopID, id)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "draft %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load draft")
	}

	var d draft.OrderDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decode draft")
	}
	return &d, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, d *draft.OrderDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	if err := s.client.Set(ctx, cacheKey(draftKeyPrefix, d.ShopID, d.ID), data, s.ttl).Err(); err != nil {
		s.logger.WithFields(logging.Fields{"draft_id": d.ID, "error": err.Error()}).Error("Failed to save draft")
		return errors.Wrap(err, "save draft")
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, shopID, id string) error {
	n, err := s.client.Del(ctx, cacheKey(draftKeyPrefix, shopID, id)).Result()
	if err != nil {
		return errors.Wrap(err, "delete draft")
	}
	if n == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "draft %s", id)
	}
	return nil
}
