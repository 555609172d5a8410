package locker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)

	release, err := l.Acquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := l.Acquire(context.Background(), 1); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second acquire want ErrLockBusy got %v", err)
	}

	release()

	release2, err := l.Acquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}

func TestLocalLockerIndependentUsers(t *testing.T) {
	l := NewLocalLocker(50 * time.Millisecond)

	release1, err := l.Acquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("acquire user 1 failed: %v", err)
	}
	defer release1()

	release2, err := l.Acquire(context.Background(), 2)
	if err != nil {
		t.Fatalf("user 2 should not be blocked by user 1: %v", err)
	}
	release2()
}

func TestLocalLockerSerializesConcurrentHolders(t *testing.T) {
	l := NewLocalLocker(5 * time.Second)

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), 7)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("counter want %d got %d", workers, counter)
	}

	l.mu.Lock()
	remaining := len(l.locks)
	l.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("lock table should be empty after all releases, got %d entries", remaining)
	}
}

func TestLocalLockerContextCanceled(t *testing.T) {
	l := NewLocalLocker(5 * time.Second)

	release, err := l.Acquire(context.Background(), 3)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Acquire(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("acquire with canceled context want context.Canceled got %v", err)
	}
}

func TestNewFallsBackToLocalLocker(t *testing.T) {
	if _, ok := New(nil, time.Second, time.Second).(*LocalLocker); !ok {
		t.Fatalf("nil client should fall back to LocalLocker")
	}
}
