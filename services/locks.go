package services

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits for them.
type keyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex[K comparable]() *keyedMutex[K] {
	return &keyedMutex[K]{locks: make(map[K]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex[K]) Lock(key K) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex[K]) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// TitleLocks serializes load-mutate-save sequences per title id. Every
// service that rewrites a Title aggregate in this process must share one.
type TitleLocks struct {
	keys *keyedMutex[uuid.UUID]
}

func NewTitleLocks() *TitleLocks {
	return &TitleLocks{keys: newKeyedMutex[uuid.UUID]()}
}

func (l *TitleLocks) Lock(id uuid.UUID) func() {
	return l.keys.Lock(id)
}
