package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"medminion/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopAvailabilityCache_AlwaysLoads(t *testing.T) {
	c := NewNoopAvailabilityCache()
	calls := 0
	load := func(ctx context.Context) ([]entity.DayAvailability, error) {
		calls++
		return []entity.DayAvailability{{DayName: "Monday", AvailableTimes: []string{"09:00"}}}, nil
	}

	for i := 0; i < 2; i++ {
		days, err := c.Fetch(context.Background(), uuid.New(), time.Now(), load)
		require.NoError(t, err)
		assert.Len(t, days, 1)
	}
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err := c.Fetch(context.Background(), uuid.New(), time.Now(), func(context.Context) ([]entity.DayAvailability, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotPanics(t, func() { c.Invalidate(context.Background(), uuid.New()) })
}

func TestAvailabilityKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b8e-0000-4000-8000-000000000001")
	assert.Equal(t, "availability:6f1c2b8e-0000-4000-8000-000000000001", availabilityKey(id))
	assert.Equal(t, "availability:gen:6f1c2b8e-0000-4000-8000-000000000001", availabilityGenerationKey(id))
}

// memAvailabilityStore mirrors the Redis store: a generation per doctor and a
// write that only lands while the generation is unchanged.
type memAvailabilityStore struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]byte
	generations map[uuid.UUID]int64
	genErr      error
}

func newMemAvailabilityStore() *memAvailabilityStore {
	return &memAvailabilityStore{entries: map[uuid.UUID][]byte{}, generations: map[uuid.UUID]int64{}}
}

func (s *memAvailabilityStore) generation(_ context.Context, doctorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[doctorID], s.genErr
}

func (s *memAvailabilityStore) get(_ context.Context, doctorID uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[doctorID], nil
}

func (s *memAvailabilityStore) setIfGeneration(_ context.Context, doctorID uuid.UUID, gen int64, raw []byte, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[doctorID] != gen {
		return false, nil
	}
	s.entries[doctorID] = raw
	return true, nil
}

func (s *memAvailabilityStore) invalidate(_ context.Context, doctorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[doctorID]++
	delete(s.entries, doctorID)
	return nil
}

func window(times ...string) []entity.DayAvailability {
	return []entity.DayAvailability{{
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DayName:        "Monday",
		AvailableTimes: times,
	}}
}

func TestAvailabilityCache_ServesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := newAvailabilityCache(newMemAvailabilityStore(), newTestLogger(), nil, time.Minute)
	id := uuid.New()
	refDate := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var calls atomic.Int32
	load := func(context.Context) ([]entity.DayAvailability, error) {
		calls.Add(1)
		return window("09:00-09:30"), nil
	}

	for i := 0; i < 2; i++ {
		days, err := c.Fetch(ctx, id, refDate, load)
		require.NoError(t, err)
		assert.Equal(t, window("09:00-09:30"), days)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := c.Fetch(ctx, id, refDate.AddDate(0, 0, 1), load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	c.Invalidate(ctx, id)
	_, err = c.Fetch(ctx, id, refDate, load)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAvailabilityCache_FillRacingInvalidateIsNotStored(t *testing.T) {
	ctx := context.Background()
	c := newAvailabilityCache(newMemAvailabilityStore(), newTestLogger(), nil, time.Minute)
	id := uuid.New()
	refDate := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	loading := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) ([]entity.DayAvailability, error) {
		close(loading)
		<-release
		return window("09:00-09:30"), nil
	}

	done := make(chan []entity.DayAvailability)
	go func() {
		days, _ := c.Fetch(ctx, id, refDate, stale)
		done <- days
	}()

	<-loading
	// a booking commits and invalidates while the stale window is being computed
	c.Invalidate(ctx, id)
	close(release)
	assert.Equal(t, window("09:00-09:30"), <-done)

	days, err := c.Fetch(ctx, id, refDate, func(context.Context) ([]entity.DayAvailability, error) {
		return window(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, window(), days)
}

func TestAvailabilityCache_GenerationFailureSkipsCaching(t *testing.T) {
	ctx := context.Background()
	store := newMemAvailabilityStore()
	store.genErr = errors.New("connection refused")
	c := newAvailabilityCache(store, newTestLogger(), nil, time.Minute)
	id := uuid.New()

	calls := 0
	load := func(context.Context) ([]entity.DayAvailability, error) {
		calls++
		return window("09:00-09:30"), nil
	}
	for i := 0; i < 2; i++ {
		_, err := c.Fetch(ctx, id, time.Now(), load)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.entries)
}
