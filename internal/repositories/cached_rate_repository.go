package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const rateCachePrefix = "taxcalc:rates:"

// RateSource is the lookup surface shared by the MySQL, YAML and cached
// rate repositories.
type RateSource interface {
	GetTavtMaster(ctx context.Context, tag string, asOf time.Time) (models.TavtMaster, error)
	GetBusinessStateChange(ctx context.Context, countyID int64) (models.BusinessStateChange, error)
	GetMilageRate(ctx context.Context, district string, countyID int64, year int) (string, bool, error)
}

// CachedRateRepository is a Redis read-through cache in front of a
// RateSource. Redis failures fall through to the source; lookup errors are
// never cached.
type CachedRateRepository struct {
	Source RateSource
	Client redis.Cmdable
	TTL    time.Duration
}

type cachedMilage struct {
	Rate string `json:"rate"`
	OK   bool   `json:"ok"`
}

func tavtKey(tag string, asOf time.Time) string {
	return fmt.Sprintf("%stavt:%s:%s", rateCachePrefix, tag, utils.FormatDate(asOf))
}

func businessKey(countyID int64) string {
	return fmt.Sprintf("%sbusiness:%d", rateCachePrefix, countyID)
}

func milageKey(district string, countyID int64, year int) string {
	return fmt.Sprintf("%smilage:%s:%d:%d", rateCachePrefix, district, countyID, year)
}

func (c CachedRateRepository) GetTavtMaster(ctx context.Context, tag string, asOf time.Time) (models.TavtMaster, error) {
	key := tavtKey(tag, asOf)
	var m models.TavtMaster
	if c.load(ctx, key, &m) {
		return m, nil
	}
	m, err := c.Source.GetTavtMaster(ctx, tag, asOf)
	if err != nil {
		return models.TavtMaster{}, err
	}
	c.store(ctx, key, m)
	return m, nil
}

func (c CachedRateRepository) GetBusinessStateChange(ctx context.Context, countyID int64) (models.BusinessStateChange, error) {
	key := businessKey(countyID)
	var b models.BusinessStateChange
	if c.load(ctx, key, &b) {
		return b, nil
	}
	b, err := c.Source.GetBusinessStateChange(ctx, countyID)
	if err != nil {
		return models.BusinessStateChange{}, err
	}
	c.store(ctx, key, b)
	return b, nil
}

func (c CachedRateRepository) GetMilageRate(ctx context.Context, district string, countyID int64, year int) (string, bool, error) {
	key := milageKey(district, countyID, year)
	var v cachedMilage
	if c.load(ctx, key, &v) {
		return v.Rate, v.OK, nil
	}
	rate, ok, err := c.Source.GetMilageRate(ctx, district, countyID, year)
	if err != nil {
		return "", false, err
	}
	c.store(ctx, key, cachedMilage{Rate: rate, OK: ok})
	return rate, ok, nil
}

// load reports a cache hit decoded into dst.
func (c CachedRateRepository) load(ctx context.Context, key string, dst any) bool {
	if c.Client == nil {
		return false
	}
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.LogEvent("", "rates", "cache_get", "redis get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		utils.LogEvent("", "rates", "cache_get", "discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c CachedRateRepository) store(ctx context.Context, key string, v any) {
	if c.Client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, string(raw), c.TTL).Err(); err != nil {
		utils.LogEvent("", "rates", "cache_set", "redis set failed", zap.String("key", key), zap.Error(err))
	}
}
