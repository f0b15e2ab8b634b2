// Пакет artifact — жизненный цикл transient-файлов скачивания.
// Store — единственный владелец scratch-каталога: никакой другой компонент
// не пишет и не удаляет в нём напрямую. Имена файлов выводятся из job id,
// удержанные (streaming) файлы защищены от sweep явным реестром, а не
// таймингом.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ошибки артефактов.
var (
	// ErrArtifactNotFound — в scratch-каталоге нет ровно одного файла job'а.
	// Ноль и больше одного — одинаково дефект, неоднозначность не
	// разрешается молча.
	ErrArtifactNotFound = errors.New("артефакт скачивания не найден")
)

// Prometheus-метрики артефактов.
var (
	artifactsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_artifacts_swept_total",
		Help: "Количество файлов, удалённых периодическим sweep.",
	})
	artifactDeleteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_artifact_delete_errors_total",
		Help: "Количество ошибок удаления артефактов (best-effort, только лог).",
	})
	artifactsHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dm_artifacts_held",
		Help: "Количество артефактов, удерживаемых активными streaming.",
	})
)

// Store — менеджер scratch-каталога.
type Store struct {
	dir           string
	retention     time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger

	mu   sync.Mutex
	held map[string]int // job id → счётчик удержаний

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New создаёт Store и scratch-каталог, если его нет.
// retention — возраст, строго после которого файл подлежит удалению sweep'ом.
func New(dir string, retention, sweepInterval time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание scratch-каталога %s: %w", dir, err)
	}
	return &Store{
		dir:           dir,
		retention:     retention,
		sweepInterval: sweepInterval,
		logger:        logger.With(slog.String("component", "artifact_store")),
		held:          make(map[string]int),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

// Dir возвращает путь scratch-каталога.
func (s *Store) Dir() string {
	return s.dir
}

// OutputPath возвращает детерминированный путь выходного файла job'а.
func (s *Store) OutputPath(jobID string) string {
	return filepath.Join(s.dir, jobID+".mp4")
}

// Resolve находит файл артефакта job'а: ровно одно совпадение по
// шаблону <jobID>.*. Ноль или несколько → ErrArtifactNotFound.
func (s *Store) Resolve(jobID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+".*"))
	if err != nil {
		return "", fmt.Errorf("поиск артефакта %s: %w", jobID, err)
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%w: job %s", ErrArtifactNotFound, jobID)
	default:
		return "", fmt.Errorf("%w: job %s — %d совпадений", ErrArtifactNotFound, jobID, len(matches))
	}
}

// Hold регистрирует артефакт как удерживаемый: sweep его не трогает,
// пока не вызван Release. Повторные Hold увеличивают счётчик.
func (s *Store) Hold(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[jobID]++
	artifactsHeld.Set(float64(len(s.held)))
}

// Release снимает удержание артефакта.
func (s *Store) Release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.held[jobID]; n <= 1 {
		delete(s.held, jobID)
	} else {
		s.held[jobID] = n - 1
	}
	artifactsHeld.Set(float64(len(s.held)))
}

// isHeld сообщает, удерживается ли артефакт с данным job id.
// Имя файла — <jobID>.<ext>; job id (UUID) точек не содержит.
func (s *Store) isHeld(filename string) bool {
	jobID, _, _ := strings.Cut(filename, ".")
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.held[jobID]
	return ok
}

// Remove удаляет все файлы job'а. Идемпотентно: отсутствие файла — не
// ошибка (sweep и delete-after-stream могут гоняться за одним файлом).
// Ошибки удаления — best-effort, только лог и метрика.
func (s *Store) Remove(jobID string) {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+".*"))
	if err != nil {
		s.logger.Error("Ошибка поиска файлов для удаления",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			artifactDeleteErrors.Inc()
			s.logger.Error("Ошибка удаления артефакта",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.logger.Debug("Артефакт удалён", slog.String("path", path))
	}
}

// Sweep удаляет из scratch-каталога файлы строго старше retention
// (возраст по mtime). Удерживаемые файлы пропускаются. Возвращает
// количество удалённых файлов.
func (s *Store) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Ошибка чтения scratch-каталога",
			slog.String("dir", s.dir),
			slog.String("error", err.Error()),
		)
		return 0
	}

	now := time.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if s.isHeld(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		// Строгое сравнение: файл возрастом ровно retention сохраняется
		if now.Sub(info.ModTime()) <= s.retention {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			artifactDeleteErrors.Inc()
			s.logger.Error("Ошибка удаления устаревшего файла",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		artifactsSweptTotal.Inc()
		removed++
		s.logger.Info("Удалён устаревший файл", slog.String("file", e.Name()))
	}
	return removed
}

// Start запускает периодический sweep. Останавливается по Stop
// или отмене контекста.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		s.logger.Info("Периодический sweep запущен",
			slog.Duration("interval", s.sweepInterval),
			slog.Duration("retention", s.retention),
		)

		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Info("Sweep завершён", slog.Int("removed", n))
				}
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop останавливает периодический sweep и ждёт завершения горутины.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}

	<-s.doneCh
	s.logger.Info("Периодический sweep остановлен")
}
