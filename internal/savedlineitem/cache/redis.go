package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"go.uber.org/zap"
)

const keySavedLineItems = "saved_line_items:org:%s"

// Repository is a read-through Redis cache in front of the catalog table.
// Redis failures are logged and the underlying repository answers instead.
type Repository struct {
	next   savedlineitemdomain.Repository
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

func NewRepository(next savedlineitemdomain.Repository, client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *Repository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Repository{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log.Named("savedlineitem.cache"),
	}
}

func cacheKey(orgID snowflake.ID) string {
	return fmt.Sprintf(keySavedLineItems, orgID.String())
}

func (r *Repository) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]docdomain.SavedLineItem, error) {
	key := cacheKey(orgID)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var items []docdomain.SavedLineItem
		if jsonErr := json.Unmarshal(raw, &items); jsonErr == nil {
			return items, nil
		}
		r.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := r.next.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(items); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, item *docdomain.SavedLineItem) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	if err := r.client.Del(ctx, cacheKey(item.OrgID)).Err(); err != nil {
		r.log.Warn("cache invalidation failed", zap.String("org_id", item.OrgID.String()), zap.Error(err))
	}
	return nil
}

var _ savedlineitemdomain.Repository = (*Repository)(nil)
