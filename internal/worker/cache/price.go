package cache

import (
	"context"
	"time"

	"balance-sync/pkg/utils"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const PRICE_CACHE_CLEANUP = time.Minute

// Quoter 与 oracle 报价接口一致
type Quoter interface {
	Quote(ctx context.Context, symbol, reference string, amount decimal.Decimal) (decimal.Decimal, error)
}

// PriceCache 报价缓存：本地 go-cache + Redis，只缓存成功的报价
type PriceCache struct {
	next       Quoter
	tl         *zap.Logger
	localCache *cache.Cache
	redis      *redis.Client
	ttl        time.Duration
}

// NewPriceCache rdb 为 nil 时只使用本地缓存
func NewPriceCache(next Quoter, tl *zap.Logger, rdb *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{
		next:       next,
		tl:         tl,
		localCache: cache.New(ttl, PRICE_CACHE_CLEANUP),
		redis:      rdb,
		ttl:        ttl,
	}
}

func (c *PriceCache) Quote(ctx context.Context, symbol, reference string, amount decimal.Decimal) (decimal.Decimal, error) {
	key := utils.PriceKey(symbol, reference) + ":" + amount.String()

	if cached, found := c.localCache.Get(key); found {
		if quote, ok := cached.(decimal.Decimal); ok {
			return quote, nil
		}
	}

	if c.redis != nil {
		if val, err := c.redis.Get(ctx, key).Result(); err == nil {
			if quote, err := decimal.NewFromString(val); err == nil {
				c.localCache.Set(key, quote, cache.DefaultExpiration)
				return quote, nil
			}
		} else if err != redis.Nil {
			c.tl.Warn("price cache redis get failed", zap.String("key", key), zap.Error(err))
		}
	}

	quote, err := c.next.Quote(ctx, symbol, reference, amount)
	if err != nil {
		return quote, err
	}

	c.localCache.Set(key, quote, cache.DefaultExpiration)
	if c.redis != nil {
		if err := c.redis.Set(ctx, key, quote.String(), c.ttl).Err(); err != nil {
			c.tl.Warn("price cache redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return quote, nil
}
