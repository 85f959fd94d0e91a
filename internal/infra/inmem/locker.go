package inmem

import (
	"context"
	"sync"

	"discord-sales-bot/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*KeyedLocker)(nil)

// KeyedLocker is a per-key mutex for single-process deployments.
// Entries are dropped once no goroutine holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

func (k *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.drop(key, e)
		})
	}, nil
}

func (k *KeyedLocker) drop(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len is the number of keys currently tracked.
func (k *KeyedLocker) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
