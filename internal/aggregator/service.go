// Package aggregator orchestrates the metrics pipeline: normalize the user's
// input, consult the TTL cache, fetch from the matching source adapter on a
// miss, and hand back one canonical record. It also keeps the per-stream
// rolling history buffer.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/cache"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/normalize"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/sources"
	"github.com/sirupsen/logrus"
)

// comparePlatformOrder fixes the record order in comparison views.
var comparePlatformOrder = []models.Platform{models.PlatformYouTube, models.PlatformTikTok}

// userFetcher is implemented by adapters that take a per-request fallback
// flag (the TikTok snapshot adapter).
type userFetcher interface {
	FetchUser(ctx context.Context, user string, fallback bool) *models.MetricsRecord
}

// Stats counts what the service has done since startup.
type Stats struct {
	Requests   int            `json:"requests"`
	CacheHits  int            `json:"cache_hits"`
	Fetches    int            `json:"fetches"`
	ByPlatform map[string]int `json:"by_platform"`
	ByStatus   map[string]int `json:"by_status"`
	LastFetch  time.Time      `json:"last_fetch,omitempty"`
}

// Service is the aggregation core. The cache is its only shared mutable
// state besides the history rings and counters, all guarded by mu.
type Service struct {
	config  *config.Config
	cache   *cache.Cache
	sources map[models.Platform]sources.Source

	mu      sync.RWMutex
	history map[cache.Key]*historyRing
	stats   Stats
}

// NewService creates the aggregation service over the given adapters.
func NewService(cfg *config.Config, c *cache.Cache, srcs ...sources.Source) *Service {
	byPlatform := make(map[models.Platform]sources.Source, len(srcs))
	for _, src := range srcs {
		byPlatform[src.Platform()] = src
	}

	return &Service{
		config:  cfg,
		cache:   c,
		sources: byPlatform,
		history: make(map[cache.Key]*historyRing),
		stats: Stats{
			ByPlatform: make(map[string]int),
			ByStatus:   make(map[string]int),
		},
	}
}

// GetMetrics resolves raw user input into a canonical metrics record.
// Normalization failures short-circuit to a not-found record; nothing here
// panics or returns an error for upstream conditions.
func (s *Service) GetMetrics(ctx context.Context, platform models.Platform, raw string) *models.MetricsRecord {
	return s.getMetrics(ctx, platform, raw, nil)
}

// GetTikTokStats is GetMetrics for the TikTok platform with an explicit
// per-request fallback flag controlling default-snapshot substitution.
func (s *Service) GetTikTokStats(ctx context.Context, raw string, fallback bool) *models.MetricsRecord {
	return s.getMetrics(ctx, models.PlatformTikTok, raw, &fallback)
}

// GetTikTokDefault serves the default snapshot when no user was given,
// cached under a reserved key so it doesn't collide with any real username.
func (s *Service) GetTikTokDefault(ctx context.Context) *models.MetricsRecord {
	source, ok := s.sources[models.PlatformTikTok]
	if !ok {
		return models.ErrorRecord(models.PlatformTikTok, "", models.StatusNotFound,
			"Plataforma no soportada.")
	}

	key := cache.Key{Platform: models.PlatformTikTok, StreamID: "_default"}
	record, hit := s.cache.GetOrCompute(key, s.config.TikTokTTL, s.config.NegativeTTL, func() *models.MetricsRecord {
		if uf, ok := source.(userFetcher); ok {
			return uf.FetchUser(ctx, "", true)
		}
		return source.Fetch(ctx, "")
	})

	if !hit {
		s.recordFetch(key, record)
	}
	s.count(record, hit)

	return record
}

func (s *Service) getMetrics(ctx context.Context, platform models.Platform, raw string, fallback *bool) *models.MetricsRecord {
	streamID, err := normalize.Normalize(raw, platform)
	if err != nil {
		logrus.Debugf("Normalization failed for %q on %s: %v", raw, platform, err)
		return models.ErrorRecord(platform, "", models.StatusNotFound,
			"Identificador vacío o inválido.")
	}

	source, ok := s.sources[platform]
	if !ok {
		return models.ErrorRecord(platform, streamID, models.StatusNotFound,
			"Plataforma no soportada.")
	}

	key := cache.Key{Platform: platform, StreamID: streamID}

	record, hit := s.cache.GetOrCompute(key, s.ttlFor(platform), s.config.NegativeTTL, func() *models.MetricsRecord {
		if fallback != nil {
			if uf, ok := source.(userFetcher); ok {
				return uf.FetchUser(ctx, streamID, *fallback)
			}
		}
		return source.Fetch(ctx, streamID)
	})

	if !hit {
		s.recordFetch(key, record)
	}
	s.count(record, hit)

	return record
}

// Compare fetches records for several platforms side by side. Each platform
// is queried independently and concurrently; one platform failing only shows
// up in its own record's status. Output order is fixed: YouTube, then TikTok.
func (s *Service) Compare(ctx context.Context, identifiers map[models.Platform]string) []*models.MetricsRecord {
	results := make(map[models.Platform]*models.MetricsRecord, len(identifiers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for platform, raw := range identifiers {
		wg.Add(1)
		go func(platform models.Platform, raw string) {
			defer wg.Done()
			record := s.GetMetrics(ctx, platform, raw)
			mu.Lock()
			results[platform] = record
			mu.Unlock()
		}(platform, raw)
	}
	wg.Wait()

	var ordered []*models.MetricsRecord
	for _, platform := range comparePlatformOrder {
		if record, ok := results[platform]; ok {
			ordered = append(ordered, record)
		}
	}
	return ordered
}

// History returns the rolling samples for a stream, oldest first. The raw
// identifier goes through the same normalization as GetMetrics so both land
// on the same key.
func (s *Service) History(platform models.Platform, raw string) []models.StreamSample {
	streamID, err := normalize.Normalize(raw, platform)
	if err != nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, ok := s.history[cache.Key{Platform: platform, StreamID: streamID}]
	if !ok {
		return nil
	}
	return ring.snapshot()
}

// GetStats returns a copy of the service counters.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.stats
	out.ByPlatform = make(map[string]int, len(s.stats.ByPlatform))
	for k, v := range s.stats.ByPlatform {
		out.ByPlatform[k] = v
	}
	out.ByStatus = make(map[string]int, len(s.stats.ByStatus))
	for k, v := range s.stats.ByStatus {
		out.ByStatus[k] = v
	}
	return out
}

// PurgeCache drops expired cache entries; the sampler calls this on its tick.
func (s *Service) PurgeCache() int {
	return s.cache.Purge()
}

func (s *Service) ttlFor(platform models.Platform) time.Duration {
	switch platform {
	case models.PlatformYouTube:
		return s.config.YouTubeTTL
	case models.PlatformTikTok:
		return s.config.TikTokTTL
	default:
		return s.config.TikTokTTL
	}
}

func (s *Service) recordFetch(key cache.Key, record *models.MetricsRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.history[key]
	if !ok {
		ring = newHistoryRing(s.config.HistoryCapacity)
		s.history[key] = ring
	}
	ring.push(models.StreamSample{
		At:                record.FetchedAt,
		ViewCount:         record.ViewCount,
		LikeCount:         record.LikeCount,
		ConcurrentViewers: record.ConcurrentViewers,
		CommentCount:      record.CommentCount,
		Status:            record.Status,
	})

	s.stats.Fetches++
	s.stats.LastFetch = time.Now()
}

func (s *Service) count(record *models.MetricsRecord, hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Requests++
	if hit {
		s.stats.CacheHits++
	}
	s.stats.ByPlatform[string(record.Platform)]++
	s.stats.ByStatus[string(record.Status)]++
}
