package artifact

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, retention time.Duration) *Store {
	t.Helper()
	s, err := New(t.TempDir(), retention, time.Hour, slog.Default())
	if err != nil {
		t.Fatalf("New ошибка: %v", err)
	}
	return s
}

// writeAged создаёт в scratch-каталоге файл с заданным возрастом (mtime).
func writeAged(t *testing.T, s *Store, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(s.Dir(), name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile ошибка: %v", err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes ошибка: %v", err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestStore_SweepRetention проверяет границу retention:
// файл возрастом 61 минута удаляется, 59 минут — сохраняется,
// ровно 60 минут — сохраняется (строгое сравнение "старше").
func TestStore_SweepRetention(t *testing.T) {
	s := newTestStore(t, time.Hour)

	old := writeAged(t, s, "old.mp4", 61*time.Minute)
	fresh := writeAged(t, s, "fresh.mp4", 59*time.Minute)
	boundary := writeAged(t, s, "boundary.mp4", 60*time.Minute)

	removed := s.Sweep()

	if exists(old) {
		t.Error("файл возрастом 61 минута должен быть удалён")
	}
	if !exists(fresh) {
		t.Error("файл возрастом 59 минут должен быть сохранён")
	}
	if !exists(boundary) {
		t.Error("файл возрастом ровно 60 минут должен быть сохранён (строгое сравнение)")
	}
	if removed != 1 {
		t.Errorf("Sweep() = %d, ожидался 1", removed)
	}
}

// TestStore_SweepSkipsHeld проверяет, что удерживаемый (streaming)
// файл не удаляется sweep'ом независимо от возраста.
func TestStore_SweepSkipsHeld(t *testing.T) {
	s := newTestStore(t, time.Hour)

	path := writeAged(t, s, "job-1.mp4", 2*time.Hour)

	s.Hold("job-1")
	s.Sweep()
	if !exists(path) {
		t.Fatal("удерживаемый файл не должен удаляться sweep'ом")
	}

	s.Release("job-1")
	s.Sweep()
	if exists(path) {
		t.Error("после Release устаревший файл должен быть удалён")
	}
}

// TestStore_RemoveIdempotent проверяет идемпотентность удаления:
// повторный Remove уже удалённого job'а — не ошибка.
func TestStore_RemoveIdempotent(t *testing.T) {
	s := newTestStore(t, time.Hour)

	path := writeAged(t, s, "job-2.mp4", 0)

	s.Remove("job-2")
	if exists(path) {
		t.Fatal("файл должен быть удалён")
	}

	// Второе удаление того же job'а — no-op
	s.Remove("job-2")
}

// TestStore_Resolve проверяет требование "ровно один файл":
// ноль и несколько совпадений — одинаково ErrArtifactNotFound.
func TestStore_Resolve(t *testing.T) {
	s := newTestStore(t, time.Hour)

	// Ноль совпадений
	if _, err := s.Resolve("missing"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("err = %v, ожидался ErrArtifactNotFound", err)
	}

	// Ровно одно совпадение
	path := writeAged(t, s, "job-3.mp4", 0)
	got, err := s.Resolve("job-3")
	if err != nil {
		t.Fatalf("Resolve ошибка: %v", err)
	}
	if got != path {
		t.Errorf("Resolve = %q, ожидался %q", got, path)
	}

	// Несколько совпадений — неоднозначность, дефект
	writeAged(t, s, "job-3.webm", 0)
	if _, err := s.Resolve("job-3"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("err = %v, ожидался ErrArtifactNotFound при неоднозначности", err)
	}
}

// TestStore_OutputPath проверяет детерминированное имя выходного файла.
func TestStore_OutputPath(t *testing.T) {
	s := newTestStore(t, time.Hour)

	want := filepath.Join(s.Dir(), "abc-123.mp4")
	if got := s.OutputPath("abc-123"); got != want {
		t.Errorf("OutputPath = %q, ожидался %q", got, want)
	}
}
