// Package collection implements the trash and favorites staging sets.
//
// Each collection is a single JSON array stored under one key. Every mutation
// reads the array, changes it and writes it back as one Set, so emptying the
// trash is a single atomic replace.
package collection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
)

// Set is a keyed collection of staged assets, unique by asset id.
type Set struct {
	kv  domain.KVStore
	key string
	mu  sync.Mutex
}

func newSet(kv domain.KVStore, key string) *Set {
	return &Set{kv: kv, key: key}
}

func (s *Set) load() ([]domain.StoredAsset, error) {
	var entries []domain.StoredAsset
	if _, err := store.GetJSON(s.kv, s.key, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Set) save(entries []domain.StoredAsset) error {
	if entries == nil {
		entries = []domain.StoredAsset{}
	}
	if err := store.SetJSON(s.kv, s.key, entries); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// Add stages entry. Adding an id that is already present is a no-op.
// Returns true when the entry was inserted.
func (s *Set) Add(entry domain.StoredAsset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.ID == entry.ID {
			return false, nil
		}
	}
	if err := s.save(append(entries, entry)); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops the entry with id. Removing an absent id is a no-op.
// Returns true when an entry was removed.
func (s *Set) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

// List returns all entries, most recently staged first.
func (s *Set) List() ([]domain.StoredAsset, error) {
	s.mu.Lock()
	entries, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// Get returns the entry with id.
func (s *Set) Get(id string) (domain.StoredAsset, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return domain.StoredAsset{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return domain.StoredAsset{}, false, nil
}

// Contains reports whether id is staged.
func (s *Set) Contains(id string) (bool, error) {
	_, ok, err := s.Get(id)
	return ok, err
}

// Count returns the number of staged entries.
func (s *Set) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	return len(entries), err
}

// TotalSize sums the known byte sizes. Unknown sizes count as zero.
func (s *Set) TotalSize() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.FileSize
	}
	return total, nil
}

// Trash is the staging area for items marked for deletion.
type Trash struct {
	*Set
}

// NewTrash returns the trash collection stored in kv.
func NewTrash(kv domain.KVStore) *Trash {
	return &Trash{Set: newSet(kv, store.KeyTrash)}
}

// Empty irreversibly clears the trash with a single replace.
func (t *Trash) Empty() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save([]domain.StoredAsset{})
}

// Favorites holds items the user favorited.
type Favorites struct {
	*Set
}

// NewFavorites returns the favorites collection stored in kv.
func NewFavorites(kv domain.KVStore) *Favorites {
	return &Favorites{Set: newSet(kv, store.KeyFavorites)}
}
