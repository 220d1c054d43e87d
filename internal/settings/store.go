// Package settings caches the backend-owned search settings behind an
// explicit repository, keyed by the endpoint path each value came from.
package settings

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"searchadmin/internal/api"
	"searchadmin/internal/domain"
)

// Cache keys, one per endpoint.
const (
	KeyCurrent   = api.PathCurrentSearchSettings
	KeySecondary = api.PathSecondarySearchSettings
)

const defaultTTL = 30 * time.Second

// entry wraps cached values so a cached "none" differs from a miss.
type entry struct {
	settings *domain.SearchSettings
}

// Store is a read-mostly cached view of current and secondary settings.
type Store struct {
	reader domain.SettingsReader
	cache  *cache.Cache
	logger *slog.Logger
}

// NewStore returns a store that refetches values older than ttl.
func NewStore(reader domain.SettingsReader, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		reader: reader,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Current returns the active settings, from cache when fresh.
func (s *Store) Current(ctx context.Context) (*domain.SearchSettings, error) {
	return s.load(ctx, KeyCurrent, s.reader.GetCurrentSearchSettings)
}

// Secondary returns the pending settings, or nil when none exist.
func (s *Store) Secondary(ctx context.Context) (*domain.SearchSettings, error) {
	return s.load(ctx, KeySecondary, s.reader.GetSecondarySearchSettings)
}

// Invalidate drops the cached value for key so the next read refetches it.
func (s *Store) Invalidate(key string) {
	s.cache.Delete(key)
	s.logger.Debug("settings cache invalidated", slog.String("key", key))
}

// InvalidateAll drops every cached value.
func (s *Store) InvalidateAll() {
	s.cache.Flush()
}

// Put records a freshly fetched value, e.g. from a poller, so other readers
// see it without another request.
func (s *Store) Put(key string, v *domain.SearchSettings) {
	s.cache.Set(key, entry{settings: clone(v)}, cache.DefaultExpiration)
}

func (s *Store) load(ctx context.Context, key string, fetch func(context.Context) (*domain.SearchSettings, error)) (*domain.SearchSettings, error) {
	if v, ok := s.cache.Get(key); ok {
		return clone(v.(entry).settings), nil
	}
	fetched, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.Put(key, fetched)
	return clone(fetched), nil
}

func clone(v *domain.SearchSettings) *domain.SearchSettings {
	if v == nil {
		return nil
	}
	c := v.Clone()
	return &c
}
