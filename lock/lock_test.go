package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockExcludes(t *testing.T) {
	factory := NewLocalFactory()
	first := factory.Get("dataset-1")
	require.NoError(t, first.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := factory.Get("dataset-1").Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := factory.Get("dataset-2")
	require.NoError(t, other.Lock(context.Background()))
	require.NoError(t, other.Unlock())

	require.NoError(t, first.Unlock())
	again := factory.Get("dataset-1")
	require.NoError(t, again.Lock(context.Background()))
	require.NoError(t, again.Unlock())
}

func TestUnlockNotHeld(t *testing.T) {
	l := NewLocalFactory().Get("x")
	assert.ErrorIs(t, l.Unlock(), ErrNotHeld)
}

func TestWithLockSerializes(t *testing.T) {
	factory := NewLocalFactory()
	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), factory, "shared", func(context.Context) error {
				current := counter
				time.Sleep(time.Microsecond)
				counter = current + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestWithLockReleasesOnError(t *testing.T) {
	factory := NewLocalFactory()
	boom := errors.New("boom")
	err := WithLock(context.Background(), factory, "k", func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	l := factory.Get("k")
	require.NoError(t, l.Lock(context.Background()))
	require.NoError(t, l.Unlock())
}

func TestWatcherShutdown(t *testing.T) {
	factory := NewLocalFactory()
	watcher := NewWatcher(factory)
	a := watcher.Get("a")
	b := watcher.Get("b")
	require.NoError(t, a.Lock(context.Background()))
	require.NoError(t, b.Lock(context.Background()))
	assert.Equal(t, 2, watcher.Held())
	require.NoError(t, b.Unlock())
	assert.Equal(t, 1, watcher.Held())

	watcher.Shutdown()
	assert.Equal(t, 0, watcher.Held())
	l := factory.Get("a")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Lock(ctx))
	require.NoError(t, l.Unlock())
	watcher.Shutdown()
}
