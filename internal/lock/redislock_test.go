package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-basket/internal/lock"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestWithLockSerialisesHolders(t *testing.T) {
	_, client := newClient(t)
	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	firstDone := make(chan struct{})
	releaseFirst := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = locker.WithLock(ctx, "lock:basket:a", 500*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstDone)
			<-releaseFirst
			return nil
		})
	}()

	<-firstDone

	go func() {
		defer wg.Done()
		_ = locker.WithLock(ctx, "lock:basket:a", 500*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first"}, order)
	mu.Unlock()

	close(releaseFirst)
	wg.Wait()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWithLockReleasesOnError(t *testing.T) {
	mr, client := newClient(t)
	locker := lock.Locker{R: client}
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "lock:basket:b", time.Second, func(context.Context) error {
		require.True(t, mr.Exists("lock:basket:b"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("lock:basket:b"))
}

func TestWithLockMaxWait(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("lock:basket:c", "someone-else"))

	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond, MaxWait: 30 * time.Millisecond}
	called := false
	err := locker.WithLock(context.Background(), "lock:basket:c", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, lock.ErrNotAcquired)
	require.False(t, called)
	v, err := mr.Get("lock:basket:c")
	require.NoError(t, err)
	require.Equal(t, "someone-else", v)
}

func TestWithLockRequiresClient(t *testing.T) {
	err := lock.Locker{}.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
}
