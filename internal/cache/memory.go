package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
)

// MemoryStore keeps snapshots in an in-process freecache. Entries past their
// TTL, or evicted when the cache is full, read as a miss.
type MemoryStore struct {
	cache *freecache.Cache
	codec *Codec
	ttl   int
}

// NewMemoryStore creates a store of sizeMB megabytes.
func NewMemoryStore(sizeMB int, ttl time.Duration, codec *Codec) *MemoryStore {
	return &MemoryStore{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		codec: codec,
		ttl:   max(int(ttl.Seconds()), 1),
	}
}

func (s *MemoryStore) Get(_ context.Context, owner string) (*domain.Snapshot, error) {
	data, err := s.cache.Get([]byte(owner))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return s.codec.Decode(data)
}

func (s *MemoryStore) Put(_ context.Context, snap *domain.Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.cache.Set([]byte(snap.Owner), data, s.ttl); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, owner string) error {
	s.cache.Del([]byte(owner))
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// EntryCount returns the number of stored snapshots.
func (s *MemoryStore) EntryCount() int64 {
	return s.cache.EntryCount()
}
