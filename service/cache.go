package service

import (
	"fmt"
	"log"
	"strings"
	"tms/metrics"

	"github.com/gin-contrib/cache/persistence"
)

// Cache key layout. Game membership keys live on the long expiry, ranking
// and payload keys on the short one.
const (
	globalRanksKey      = "global_ranks"
	standingsPayloadKey = "standings_payload"
)

func teamGamesKey(teamId int) string {
	return fmt.Sprintf("team_games_%d", teamId)
}

func teamGamesCountKey(teamId int) string {
	return fmt.Sprintf("team_games_count_%d", teamId)
}

func teamStatsKey(teamId int) string {
	return fmt.Sprintf("team_stats_%d", teamId)
}

func divisionRanksKey(divisionId int) string {
	return fmt.Sprintf("division_ranks_%d", divisionId)
}

// invalidate drops cache entries best-effort. A failed delete only costs a
// stale read until the entry expires, so it is logged and swallowed.
func invalidate(cache persistence.CacheStore, keys ...string) {
	for _, key := range keys {
		err := cache.Delete(key)
		if err != nil && err != persistence.ErrCacheMiss {
			log.Printf("Failed to invalidate cache key %s: %v", key, err)
			continue
		}
		metrics.CacheInvalidationCounter.WithLabelValues(cacheView(key)).Inc()
	}
}

// cacheView strips the numeric id suffix so metric labels stay low-cardinality.
func cacheView(key string) string {
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return key
	}
	if suffix := key[i+1:]; suffix != "" && strings.TrimLeft(suffix, "0123456789") == "" {
		return key[:i]
	}
	return key
}
