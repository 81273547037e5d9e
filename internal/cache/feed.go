package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/unsaid-app/backend/internal/logger"
	"go.uber.org/zap"
)

// Feed pages are cached briefly for anonymous readers. Any vote, post, or
// pin change drops every page, so the TTL only bounds staleness when an
// invalidation is missed.
const (
	feedKeyPrefix = "feed:"
	feedTTL       = 30 * time.Second
)

// FeedKey builds the cache key for one page of the public feed.
func FeedKey(sort, postType, communityID string, limit, offset int) string {
	return fmt.Sprintf("%s%s:%s:%s:%d:%d", feedKeyPrefix, sort, postType, communityID, limit, offset)
}

// GetFeedPage returns a cached rendered feed page, or "" on a miss or when
// Redis is not configured.
func GetFeedPage(ctx context.Context, key string) string {
	rc := GetRedisClient()
	if rc == nil {
		return ""
	}
	page, err := rc.Get(ctx, key)
	if err != nil {
		return ""
	}
	return page
}

// StoreFeedPage caches one rendered feed page.
func StoreFeedPage(ctx context.Context, key, page string) {
	rc := GetRedisClient()
	if rc == nil {
		return
	}
	if err := rc.SetEx(ctx, key, page, feedTTL); err != nil {
		logger.Log.Warn("Failed to cache feed page", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateFeeds drops every cached feed page. Called after a successful
// vote and after post mutations that change what a page contains.
func InvalidateFeeds(ctx context.Context) {
	rc := GetRedisClient()
	if rc == nil {
		return
	}
	keys, err := rc.Keys(ctx, feedKeyPrefix+"*")
	if err != nil || len(keys) == 0 {
		return
	}
	if err := rc.Del(ctx, keys...); err != nil {
		logger.Log.Warn("Failed to invalidate feed cache", zap.Error(err))
	}
}
