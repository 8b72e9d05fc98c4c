package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/igocard/backend/internal/models"
)

// Public lookups are read-heavy (every card view hits one), so results are
// kept in redis for a short window. The cache is strictly best-effort: any
// redis failure is logged and the caller falls through to the database.
const (
	profileCachePrefix = "profile:name:"
	profileCacheTTL    = 5 * time.Minute
)

func (s *ProfileService) cacheGet(ctx context.Context, normalizedName string) *models.Profile {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, profileCachePrefix+normalizedName).Bytes()
	if err != nil {
		return nil
	}
	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		log.Printf("[ProfileService] dropping corrupt cache entry for %q: %v", normalizedName, err)
		s.cache.Del(ctx, profileCachePrefix+normalizedName)
		return nil
	}
	return &profile
}

func (s *ProfileService) cacheSet(ctx context.Context, profile *models.Profile) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileCachePrefix+profile.NormalizedName, data, profileCacheTTL).Err(); err != nil {
		log.Printf("[ProfileService] failed to cache profile %q: %v", profile.NormalizedName, err)
	}
}

func (s *ProfileService) invalidateCache(ctx context.Context, normalizedName string) {
	if s.cache == nil || normalizedName == "" {
		return
	}
	if err := s.cache.Del(ctx, profileCachePrefix+normalizedName).Err(); err != nil {
		log.Printf("[ProfileService] failed to invalidate cache for %q: %v", normalizedName, err)
	}
}
