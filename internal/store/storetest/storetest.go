// Package storetest provides store doubles for tests.
package storetest

import (
	"errors"
	"sync"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
)

// ErrInjected is returned by a FaultyStore for keys marked as failing.
var ErrInjected = errors.New("injected store failure")

// FaultyStore wraps a memory store and fails writes (and optionally reads)
// for selected keys.
type FaultyStore struct {
	*store.KVStore

	mu         sync.Mutex
	failWrites map[string]bool
	failReads  map[string]bool
	writes     int
}

// NewFaulty returns a FaultyStore backed by a fresh memory store.
func NewFaulty() *FaultyStore {
	return &FaultyStore{
		KVStore:    store.NewMemory(),
		failWrites: make(map[string]bool),
		failReads:  make(map[string]bool),
	}
}

// FailWrites makes Set and Remove fail for key.
func (f *FaultyStore) FailWrites(key string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites[key] = fail
}

// FailReads makes Get fail for key.
func (f *FaultyStore) FailReads(key string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads[key] = fail
}

// Writes returns the number of successful writes.
func (f *FaultyStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FaultyStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failReads[key]
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.KVStore.Get(key)
}

func (f *FaultyStore) Set(key, value string) error {
	f.mu.Lock()
	fail := f.failWrites[key]
	if !fail {
		f.writes++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KVStore.Set(key, value)
}

func (f *FaultyStore) Remove(key string) error {
	f.mu.Lock()
	fail := f.failWrites[key]
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KVStore.Remove(key)
}

var _ domain.KVStore = (*FaultyStore)(nil)
