package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const keyPrefix = "scheduling:availability"

// SummaryCache кэш полностью занятых дат исполнителя.
// Инвалидация выполняется увеличением версии исполнителя: старые ключи перестают читаться и истекают по TTL.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	loc    *time.Location
}

// SummaryKey параметры запроса сводки
type SummaryKey struct {
	ProviderID    int64
	DurationHours int
	StartDate     time.Time
	EndDate       time.Time
}

// NewRedisClient создает клиент Redis
func NewRedisClient(addr, password string, db, poolSize int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
}

// NewSummaryCache создает кэш; даты хранятся в календаре loc
func NewSummaryCache(client *redis.Client, ttl time.Duration, loc *time.Location) *SummaryCache {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		loc:    loc,
	}
}

// Get возвращает сохраненную сводку и версию исполнителя, под которой ее искали.
// found = false, если значения нет. Версию нужно передать в Set вместе с посчитанной сводкой.
func (c *SummaryCache) Get(ctx context.Context, key SummaryKey) (dates []time.Time, version int64, found bool, err error) {
	version, err = c.version(ctx, key.ProviderID)
	if err != nil {
		return nil, 0, false, err
	}

	val, err := c.client.Get(ctx, c.summaryKey(key, version)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, version, false, fmt.Errorf("%w: Get - provider=%d: %v", ErrCache, key.ProviderID, err)
	}

	var raw []string
	if err := json.Unmarshal([]byte(val), &raw); err != nil {
		return nil, version, false, fmt.Errorf("%w: Get - provider=%d: %v", ErrDecode, key.ProviderID, err)
	}

	dates = make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseInLocation(domain.DateFormat, s, c.loc)
		if err != nil {
			return nil, version, false, fmt.Errorf("%w: Get - date %q: %v", ErrDecode, s, err)
		}
		dates = append(dates, d)
	}

	return dates, version, true, nil
}

// Set сохраняет сводку с TTL под версией, полученной из Get.
// Если между Get и Set исполнителя инвалидировали, запись попадает под устаревшую версию и не читается.
func (c *SummaryCache) Set(ctx context.Context, key SummaryKey, version int64, dates []time.Time) error {
	raw := make([]string, 0, len(dates))
	for _, d := range dates {
		raw = append(raw, d.In(c.loc).Format(domain.DateFormat))
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: Set - provider=%d: %v", ErrDecode, key.ProviderID, err)
	}

	if err := c.client.Set(ctx, c.summaryKey(key, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: Set - provider=%d: %v", ErrCache, key.ProviderID, err)
	}
	return nil
}

// Invalidate делает недействительными все сводки исполнителя
func (c *SummaryCache) Invalidate(ctx context.Context, providerID int64) error {
	if err := c.client.Incr(ctx, versionKey(providerID)).Err(); err != nil {
		return fmt.Errorf("%w: Invalidate - provider=%d: %v", ErrCache, providerID, err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func (c *SummaryCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: Ping: %v", ErrCache, err)
	}
	return nil
}

func (c *SummaryCache) version(ctx context.Context, providerID int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(providerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: version - provider=%d: %v", ErrCache, providerID, err)
	}
	return v, nil
}

func (c *SummaryCache) summaryKey(key SummaryKey, version int64) string {
	return fmt.Sprintf("%s:summary:%d:v%d:%dh:%s:%s",
		keyPrefix,
		key.ProviderID,
		version,
		key.DurationHours,
		key.StartDate.In(c.loc).Format(domain.DateFormat),
		key.EndDate.In(c.loc).Format(domain.DateFormat),
	)
}

func versionKey(providerID int64) string {
	return fmt.Sprintf("%s:version:%d", keyPrefix, providerID)
}
