// Package lock provides keyed exclusive locks guarding shared datasets.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var log logrus.FieldLogger = logrus.New()

func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

var ErrNotHeld = errors.New("lock not held")

type Lock interface {
	Key() string
	// Lock blocks until the lock is acquired or ctx is done.
	Lock(ctx context.Context) error
	Unlock() error
}

type Factory interface {
	Get(key string) Lock
}

// LocalFactory hands out in-process locks; locks with the same key exclude
// each other.
type LocalFactory struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewLocalFactory() *LocalFactory {
	return &LocalFactory{sems: make(map[string]*semaphore.Weighted)}
}

func (f *LocalFactory) Get(key string) Lock {
	f.mu.Lock()
	defer f.mu.Unlock()
	sem, ok := f.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		f.sems[key] = sem
	}
	return &localLock{key: key, sem: sem}
}

type localLock struct {
	key  string
	sem  *semaphore.Weighted
	mu   sync.Mutex
	held bool
}

func (l *localLock) Key() string {
	return l.key
}

func (l *localLock) Lock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("cannot acquire lock '%s': %w", l.key, err)
	}
	l.mu.Lock()
	l.held = true
	l.mu.Unlock()
	return nil
}

func (l *localLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return fmt.Errorf("cannot release lock '%s': %w", l.key, ErrNotHeld)
	}
	l.held = false
	l.sem.Release(1)
	return nil
}

// WithLock runs fn while holding the lock for key. The lock is released when
// fn returns, whatever it returns.
func WithLock(ctx context.Context, factory Factory, key string, fn func(ctx context.Context) error) (err error) {
	l := factory.Get(key)
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if unlockErr := l.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()
	return fn(ctx)
}
