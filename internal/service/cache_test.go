package service

import (
	"testing"
	"time"

	"github.com/bigkaa/orbit/download-module/internal/domain/model"
)

// TestCacheService_GetSet проверяет базовые операции Get/Set.
func TestCacheService_GetSet(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	result := &model.ExtractionResult{
		Title:     "Test Video",
		SourceURL: "https://example.com/video123",
		FormatsByQuality: map[model.QualityTier]string{
			model.Quality720p: "136",
		},
	}

	// Cache miss
	_, ok := cache.Get("https://example.com/video123")
	if ok {
		t.Fatal("ожидался cache miss для нового ключа")
	}

	// Set + cache hit
	cache.Set("https://example.com/video123", result)
	got, ok := cache.Get("https://example.com/video123")
	if !ok {
		t.Fatal("ожидался cache hit после Set")
	}
	if got.Title != "Test Video" {
		t.Errorf("Title = %q, ожидался %q", got.Title, "Test Video")
	}
	if got.FormatsByQuality[model.Quality720p] != "136" {
		t.Errorf("FormatsByQuality[720p] = %q, ожидался %q", got.FormatsByQuality[model.Quality720p], "136")
	}
}

// TestCacheService_Delete проверяет удаление из кэша.
func TestCacheService_Delete(t *testing.T) {
	cache := NewCacheService(100, 5*time.Minute)

	cache.Set("https://example.com/v", &model.ExtractionResult{Title: "t"})

	// Проверяем что запись есть
	if _, ok := cache.Get("https://example.com/v"); !ok {
		t.Fatal("ожидался cache hit перед удалением")
	}

	cache.Delete("https://example.com/v")

	if _, ok := cache.Get("https://example.com/v"); ok {
		t.Fatal("ожидался cache miss после Delete")
	}
}

// TestCacheService_TTLExpiration проверяет автоматическое истечение TTL.
func TestCacheService_TTLExpiration(t *testing.T) {
	// Короткий TTL = 50ms для теста
	cache := NewCacheService(100, 50*time.Millisecond)

	cache.Set("https://example.com/v", &model.ExtractionResult{Title: "t"})

	if _, ok := cache.Get("https://example.com/v"); !ok {
		t.Fatal("ожидался cache hit сразу после Set")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := cache.Get("https://example.com/v"); ok {
		t.Fatal("ожидался cache miss после истечения TTL")
	}
}
