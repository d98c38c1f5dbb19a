package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCalendarLocker(client, 5*time.Second), mr
}

func TestWithCalendarLockRunsFn(t *testing.T) {
	locker, _ := newTestLocker(t)

	ran := false
	err := locker.WithCalendarLock(context.Background(), "clinic@group.calendar", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithCalendarLockMutualExclusion(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	err := locker.WithCalendarLock(ctx, "cal-1", func(inner context.Context) error {
		// Second acquisition for the same calendar must be refused while the
		// first holder is inside the critical section.
		second := locker.WithCalendarLock(ctx, "cal-1", func(context.Context) error {
			t.Fatal("second holder must not enter")
			return nil
		})
		assert.ErrorIs(t, second, ErrLockNotAcquired)

		// A different calendar is unaffected.
		other := locker.WithCalendarLock(ctx, "cal-2", func(context.Context) error { return nil })
		assert.NoError(t, other)
		return nil
	})
	require.NoError(t, err)

	// Lock released after the critical section, so re-acquisition works.
	err = locker.WithCalendarLock(ctx, "cal-1", func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithCalendarLockReleasesOnFnError(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := locker.WithCalendarLock(ctx, "cal-1", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:calendar:cal-1"))
}

func TestLocalLockerSerializes(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	counter := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = locker.WithCalendarLock(ctx, "cal", func(context.Context) error {
			counter++
			return nil
		})
	}()
	err := locker.WithCalendarLock(ctx, "cal", func(context.Context) error {
		counter++
		return nil
	})
	require.NoError(t, err)
	<-done
	assert.Equal(t, 2, counter)
}
