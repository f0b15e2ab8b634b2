// Пакет service — бизнес-логика Download Module.
// CacheService — LRU-кэш результатов extract с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш результатов extract.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша результатов extract.",
	})
)

// CacheService — LRU-кэш результатов extract по исходному URL.
// Повторный extract того же URL в пределах TTL не порождает подпроцесс.
// Кэш per-instance, in-memory; метаданные нигде не персистятся.
type CacheService struct {
	cache *expirable.LRU[string, *model.ExtractionResult]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.ExtractionResult](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает ExtractionResult из кэша по URL.
// Возвращает (результат, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(url string) (*model.ExtractionResult, bool) {
	val, ok := c.cache.Get(url)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(url string, result *model.ExtractionResult) {
	c.cache.Add(url, result)
}

// Delete удаляет запись из кэша.
func (c *CacheService) Delete(url string) {
	c.cache.Remove(url)
}
