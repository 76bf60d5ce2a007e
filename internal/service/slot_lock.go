package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockNotAcquired is returned when a slot lock could not be taken before the deadline
var ErrLockNotAcquired = errors.New("slot lock not acquired")

const (
	RedisSlotLockKeyPrefix = "lock:slot:"

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute

	lockRetryInterval = 25 * time.Millisecond
)

// SlotLocker serialises read-modify-write cycles on individual grid slots
type SlotLocker interface {
	// Lock takes every key (deduplicated, in sorted order) and returns a func releasing them all
	Lock(ctx context.Context, keys ...string) (func(), error)
	Stop()
}

// SlotKey names the exclusive scope of one (doctor, weekday, slot) triple
func SlotKey(doctorID uuid.UUID, day, slot string) string {
	return fmt.Sprintf("%s:%s:%s", doctorID, day, slot)
}

func orderedKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// =============================================================================
// In-process locker
// =============================================================================

type localSlotLocker struct {
	log *logrus.Logger

	// Per-slot mutex
	slotMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewLocalSlotLocker locks within a single process. Starts background goroutine for
// mutex cleanup; call Stop() during graceful shutdown.
func NewLocalSlotLocker(log *logrus.Logger) SlotLocker {
	l := &localSlotLocker{
		log:      log,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

func (l *localSlotLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := orderedKeys(keys)
	held := make([]*mutexWithTimestamp, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].lastUsed.Store(time.Now().Unix())
			held[i].mu.Unlock()
		}
	}

	for _, key := range ordered {
		mt := l.getSlotMutex(key)
		if err := lockWithContext(ctx, &mt.mu); err != nil {
			release()
			return nil, err
		}
		held = append(held, mt)
	}
	return release, nil
}

// lockWithContext spins on TryLock so a waiting caller still honours cancellation
func lockWithContext(ctx context.Context, mu *sync.Mutex) error {
	if mu.TryLock() {
		return nil
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
			if mu.TryLock() {
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the cleanup loop. Safe to call multiple times.
func (l *localSlotLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("Slot locker stopped")
	}
}

// getSlotMutex returns mutex for a specific slot key
func (l *localSlotLocker) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := l.slotMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (l *localSlotLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes mutexes unused since cutoff. lastUsed is checked under
// the lock so a concurrent getSlotMutex cannot lose its entry.
func (l *localSlotLocker) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int

	l.slotMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff.Unix() {
				l.slotMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
	return cleaned
}

// =============================================================================
// Redis locker
// =============================================================================

// releaseLockScript deletes the lock only while it still holds our token.
// go-redis switches to EVALSHA after the first call.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type redisSlotLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

// NewRedisSlotLocker locks across instances with SET NX PX. ttl bounds how long a
// crashed holder can block a slot.
func NewRedisSlotLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) SlotLocker {
	return &redisSlotLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func (l *redisSlotLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	token := uuid.NewString()
	ordered := orderedKeys(keys)
	held := make([]string, 0, len(ordered))
	release := func() {
		// release must work even after the request context is gone
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseLockScript.Run(releaseCtx, l.redisClient, []string{held[i]}, token).Err(); err != nil {
				l.log.Warnf("Failed to release slot lock %s: %+v", held[i], err)
			}
		}
	}

	deadline, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	for _, key := range ordered {
		redisKey := RedisSlotLockKeyPrefix + key
		if err := l.acquire(deadline, redisKey, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, redisKey)
	}
	return release, nil
}

func (l *redisSlotLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			l.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
			return fmt.Errorf("acquire slot lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *redisSlotLocker) Stop() {}
