package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"medminion/internal/domain/entity"
	"medminion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	RedisAvailabilityKeyPrefix           = "availability:"
	RedisAvailabilityGenerationKeyPrefix = "availability:gen:"

	redisCacheTimeout = 2 * time.Second
)

// AvailabilityLoader computes the projected window when the cache misses
type AvailabilityLoader func(ctx context.Context) ([]entity.DayAvailability, error)

// AvailabilityCache memoises the projected availability window of each doctor.
// An entry is only valid for the reference date it was computed on.
type AvailabilityCache interface {
	Fetch(ctx context.Context, doctorID uuid.UUID, refDate time.Time, load AvailabilityLoader) ([]entity.DayAvailability, error)
	Invalidate(ctx context.Context, doctorID uuid.UUID)
}

type cachedWindow struct {
	Date    string             `json:"date"`
	Entries []cachedDayEntries `json:"entries"`
}

type cachedDayEntries struct {
	Date           string   `json:"date"`
	DayName        string   `json:"day_name"`
	AvailableTimes []string `json:"available_times"`
}

// availabilityStore holds the cached windows. Every invalidation bumps a per-doctor
// generation, and a fill is only stored while the generation it started under is current.
type availabilityStore interface {
	generation(ctx context.Context, doctorID uuid.UUID) (int64, error)
	// get returns nil without error on a miss
	get(ctx context.Context, doctorID uuid.UUID) ([]byte, error)
	setIfGeneration(ctx context.Context, doctorID uuid.UUID, gen int64, raw []byte, ttl time.Duration) (bool, error)
	invalidate(ctx context.Context, doctorID uuid.UUID) error
}

type availabilityCache struct {
	store   availabilityStore
	log     *logrus.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
	group   singleflight.Group
}

func NewRedisAvailabilityCache(redisClient *redis.Client, log *logrus.Logger, m *metrics.Metrics, ttl time.Duration) AvailabilityCache {
	return newAvailabilityCache(&redisAvailabilityStore{redisClient: redisClient}, log, m, ttl)
}

func newAvailabilityCache(store availabilityStore, log *logrus.Logger, m *metrics.Metrics, ttl time.Duration) *availabilityCache {
	return &availabilityCache{
		store:   store,
		log:     log,
		metrics: m,
		ttl:     ttl,
	}
}

func availabilityKey(doctorID uuid.UUID) string {
	return RedisAvailabilityKeyPrefix + doctorID.String()
}

func availabilityGenerationKey(doctorID uuid.UUID) string {
	return RedisAvailabilityGenerationKeyPrefix + doctorID.String()
}

// Fetch serves from the store when the stored reference date matches, otherwise loads once
// per doctor, date and generation across concurrent callers. A fill that raced with an
// Invalidate is returned to its callers but not stored. Store failures degrade to a plain load.
func (c *availabilityCache) Fetch(ctx context.Context, doctorID uuid.UUID, refDate time.Time, load AvailabilityLoader) ([]entity.DayAvailability, error) {
	date := refDate.Format(entity.DateLayout)
	if days, ok := c.get(ctx, doctorID, date); ok {
		c.metrics.CacheLookup(true)
		return days, nil
	}
	c.metrics.CacheLookup(false)

	gen, err := c.generation(ctx, doctorID)
	if err != nil {
		c.log.Warnf("Failed to read availability cache generation for doctor %s: %+v", doctorID, err)
		return load(ctx)
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%s@%s#%d", availabilityKey(doctorID), date, gen), func() (interface{}, error) {
		days, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, doctorID, gen, date, days)
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.DayAvailability), nil
}

func (c *availabilityCache) Invalidate(ctx context.Context, doctorID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisCacheTimeout)
	defer cancel()

	if err := c.store.invalidate(ctx, doctorID); err != nil {
		c.log.Warnf("Failed to invalidate availability cache for doctor %s: %+v", doctorID, err)
	}
}

func (c *availabilityCache) generation(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()
	return c.store.generation(ctx, doctorID)
}

func (c *availabilityCache) get(ctx context.Context, doctorID uuid.UUID, date string) ([]entity.DayAvailability, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := c.store.get(ctx, doctorID)
	if err != nil {
		c.log.Warnf("Failed to read availability cache for doctor %s: %+v", doctorID, err)
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var cached cachedWindow
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.log.Warnf("Discarding malformed availability cache for doctor %s: %+v", doctorID, err)
		return nil, false
	}
	if cached.Date != date {
		return nil, false
	}

	days := make([]entity.DayAvailability, 0, len(cached.Entries))
	for _, e := range cached.Entries {
		d, err := entity.ParseDate(e.Date)
		if err != nil {
			return nil, false
		}
		days = append(days, entity.DayAvailability{Date: d, DayName: e.DayName, AvailableTimes: e.AvailableTimes})
	}
	return days, true
}

func (c *availabilityCache) set(ctx context.Context, doctorID uuid.UUID, gen int64, date string, days []entity.DayAvailability) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisCacheTimeout)
	defer cancel()

	cached := cachedWindow{Date: date, Entries: make([]cachedDayEntries, len(days))}
	for i, d := range days {
		cached.Entries[i] = cachedDayEntries{
			Date:           d.Date.Format(entity.DateLayout),
			DayName:        d.DayName,
			AvailableTimes: d.AvailableTimes,
		}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		c.log.Warnf("Failed to encode availability cache for doctor %s: %+v", doctorID, err)
		return
	}
	stored, err := c.store.setIfGeneration(ctx, doctorID, gen, raw, c.ttl)
	if err != nil {
		c.log.Warnf("Failed to write availability cache for doctor %s: %+v", doctorID, err)
		return
	}
	if !stored {
		c.log.Debugf("Availability of doctor %s changed while loading, not caching", doctorID)
	}
}

// setIfGenerationScript writes the entry only while the generation is unchanged.
// A missing generation key reads as 0.
var setIfGenerationScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	if tonumber(ARGV[3]) > 0 then
		redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	else
		redis.call('SET', KEYS[1], ARGV[2])
	end
	return 1
`)

type redisAvailabilityStore struct {
	redisClient *redis.Client
}

func (s *redisAvailabilityStore) generation(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	gen, err := s.redisClient.Get(ctx, availabilityGenerationKey(doctorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *redisAvailabilityStore) get(ctx context.Context, doctorID uuid.UUID) ([]byte, error) {
	raw, err := s.redisClient.Get(ctx, availabilityKey(doctorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (s *redisAvailabilityStore) setIfGeneration(ctx context.Context, doctorID uuid.UUID, gen int64, raw []byte, ttl time.Duration) (bool, error) {
	keys := []string{availabilityKey(doctorID), availabilityGenerationKey(doctorID)}
	n, err := setIfGenerationScript.Run(ctx, s.redisClient, keys, strconv.FormatInt(gen, 10), raw, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *redisAvailabilityStore) invalidate(ctx context.Context, doctorID uuid.UUID) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, availabilityGenerationKey(doctorID))
		pipe.Del(ctx, availabilityKey(doctorID))
		return nil
	})
	return err
}

type noopAvailabilityCache struct{}

// NewNoopAvailabilityCache always loads; used when Redis is disabled
func NewNoopAvailabilityCache() AvailabilityCache {
	return noopAvailabilityCache{}
}

func (noopAvailabilityCache) Fetch(ctx context.Context, _ uuid.UUID, _ time.Time, load AvailabilityLoader) ([]entity.DayAvailability, error) {
	return load(ctx)
}

func (noopAvailabilityCache) Invalidate(context.Context, uuid.UUID) {}
