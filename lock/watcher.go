package lock

import (
	"context"
	"errors"
	"sync"
)

// Watcher wraps a Factory and keeps track of held locks so they can all be
// released on shutdown.
type Watcher struct {
	factory Factory
	mu      sync.Mutex
	held    map[*watchedLock]struct{}
}

func NewWatcher(factory Factory) *Watcher {
	return &Watcher{factory: factory, held: make(map[*watchedLock]struct{})}
}

func (w *Watcher) Get(key string) Lock {
	return &watchedLock{inner: w.factory.Get(key), watcher: w}
}

// Held returns the number of locks currently acquired through w.
func (w *Watcher) Held() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.held)
}

// Shutdown releases every lock still held. Errors are logged, not returned.
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	held := w.held
	w.held = make(map[*watchedLock]struct{})
	w.mu.Unlock()
	if len(held) == 0 {
		log.Info("no lock to release")
		return
	}
	log.WithField("count", len(held)).Info("releasing locks")
	for l := range held {
		if err := l.inner.Unlock(); err != nil && !errors.Is(err, ErrNotHeld) {
			log.WithError(err).WithField("key", l.Key()).Warn("cannot release lock")
		}
	}
}

type watchedLock struct {
	inner   Lock
	watcher *Watcher
}

func (l *watchedLock) Key() string {
	return l.inner.Key()
}

func (l *watchedLock) Lock(ctx context.Context) error {
	if err := l.inner.Lock(ctx); err != nil {
		return err
	}
	l.watcher.mu.Lock()
	l.watcher.held[l] = struct{}{}
	l.watcher.mu.Unlock()
	return nil
}

func (l *watchedLock) Unlock() error {
	l.watcher.mu.Lock()
	delete(l.watcher.held, l)
	l.watcher.mu.Unlock()
	return l.inner.Unlock()
}
