package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (Locker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCalendarLocker(client, 5*time.Second), client
}

func TestWithCalendarLockRunsAndReleases(t *testing.T) {
	locker, client := newTestLocker(t)

	profID := uuid.New()
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	ran := false
	err := locker.WithCalendarLock(context.Background(), profID, date, func(ctx context.Context) error {
		ran = true
		n, err := client.Exists(ctx, "lock:calendar:"+profID.String()+":2024-06-10").Result()
		if err != nil {
			return err
		}
		if n != 1 {
			t.Error("lock key must be held while the callback runs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("callback did not run")
	}

	n, err := client.Exists(context.Background(), "lock:calendar:"+profID.String()+":2024-06-10").Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if n != 0 {
		t.Error("lock key must be released after the callback returns")
	}
}

func TestWithCalendarLockContention(t *testing.T) {
	locker, _ := newTestLocker(t)

	profID := uuid.New()
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	err := locker.WithCalendarLock(context.Background(), profID, date, func(ctx context.Context) error {
		// same cell while held
		inner := locker.WithCalendarLock(ctx, profID, date, func(ctx context.Context) error {
			t.Error("second acquirer must not enter the critical section")
			return nil
		})
		if !errors.Is(inner, ErrLockNotAcquired) {
			t.Errorf("expected ErrLockNotAcquired, got %v", inner)
		}

		// a different professional's cell is independent
		other := locker.WithCalendarLock(ctx, uuid.New(), date, func(ctx context.Context) error { return nil })
		if other != nil {
			t.Errorf("other cell should lock independently: %v", other)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithCalendarLockSequentialReacquire(t *testing.T) {
	locker, _ := newTestLocker(t)

	profID := uuid.New()
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := locker.WithCalendarLock(context.Background(), profID, date, func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("reacquire %d: %v", i, err)
		}
	}
}

func TestWithCalendarLockPropagatesCallbackError(t *testing.T) {
	locker, client := newTestLocker(t)

	profID := uuid.New()
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := locker.WithCalendarLock(context.Background(), profID, date, func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error back, got %v", err)
	}

	// released even on failure
	n, _ := client.Exists(context.Background(), "lock:calendar:"+profID.String()+":2024-06-10").Result()
	if n != 0 {
		t.Error("lock must be released when the callback fails")
	}
}
