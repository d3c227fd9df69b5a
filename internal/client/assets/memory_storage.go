package assets

import (
	"context"
	"sort"

	"github.com/patrickmn/go-cache"
)

// MemoryStorage keeps generations in process memory. Nothing expires.
type MemoryStorage struct {
	c *cache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{c: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	items := s.c.Items()
	names := make([]string, 0, len(items))
	for k := range items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Has(ctx context.Context, name string) (bool, error) {
	_, ok := s.c.Get(name)
	return ok, nil
}

func (s *MemoryStorage) Put(ctx context.Context, name string, entries []Entry) error {
	if err := checkName(name); err != nil {
		return err
	}
	gen := make(map[string]Entry, len(entries))
	for _, e := range entries {
		e.Header = e.Header.Clone()
		e.Body = append([]byte(nil), e.Body...)
		gen[e.URL] = e
	}
	s.c.Set(name, gen, cache.NoExpiration)
	return nil
}

func (s *MemoryStorage) Match(ctx context.Context, name, url string) (*Entry, error) {
	v, ok := s.c.Get(name)
	if !ok {
		return nil, ErrNotCached
	}
	e, ok := v.(map[string]Entry)[url]
	if !ok {
		return nil, ErrNotCached
	}
	e.Body = append([]byte(nil), e.Body...)
	return &e, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, name string) (bool, error) {
	if _, ok := s.c.Get(name); !ok {
		return false, nil
	}
	s.c.Delete(name)
	return true, nil
}
