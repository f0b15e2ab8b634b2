// Пакет runner — запуск внешних процессов с жёстким таймаутом.
// Один вызов Run — один OS-процесс, без разделяемого состояния между
// вызовами. Аргументы передаются структурированным списком, shell не
// используется — интерполяция URL/format id в командную строку исключена.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ошибки runner.
var (
	// ErrTimedOut — процесс не завершился за отведённый таймаут и был убит.
	ErrTimedOut = errors.New("процесс превысил таймаут и был завершён")
)

// Prometheus-метрики подпроцессов.
var (
	subprocessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_subprocess_total",
		Help: "Общее количество запусков внешних процессов (по статусу).",
	}, []string{"status"})

	subprocessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dm_subprocess_duration_seconds",
		Help:    "Длительность выполнения внешних процессов.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})
)

// waitDelay — сколько ждать выхода процесса после закрытия его
// stdout/stderr при отмене контекста, прежде чем послать SIGKILL.
const waitDelay = 5 * time.Second

// Result — захваченный вывод завершившегося процесса.
type Result struct {
	// Stdout — стандартный вывод (обрезан до максимума буфера)
	Stdout []byte
	// Stderr — стандартный вывод ошибок (обрезан до максимума буфера)
	Stderr []byte
	// ExitCode — код завершения; -1 если процесс был убит
	ExitCode int
}

// Runner — исполнитель внешних команд.
type Runner struct {
	logger *slog.Logger
	// maxOutputBytes — максимум байт, захватываемых с каждого потока.
	// Избыток молча отбрасывается — защита от неограниченного роста памяти.
	maxOutputBytes int64
}

// New создаёт Runner. maxOutputBytes ограничивает захват stdout и stderr
// (каждый поток отдельно).
func New(maxOutputBytes int64, logger *slog.Logger) *Runner {
	return &Runner{
		logger:         logger.With(slog.String("component", "runner")),
		maxOutputBytes: maxOutputBytes,
	}
}

// Run запускает команду и ждёт её завершения не дольше timeout.
// Возвращает Result даже при ошибке — stderr нужен вызывающему для
// классификации сбоя. При истечении таймаута процесс завершается
// (не abandon), ошибка — ErrTimedOut.
func (r *Runner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay

	stdout := newLimitWriter(r.maxOutputBytes)
	stderr := newLimitWriter(r.maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)
	subprocessDuration.Observe(duration.Seconds())

	// ProcessState == nil — процесс не стартовал (бинарник не найден и т.п.)
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}

	if ctx.Err() == context.DeadlineExceeded {
		subprocessTotal.WithLabelValues("timeout").Inc()
		r.logger.Warn("Процесс завершён по таймауту",
			slog.String("command", name),
			slog.Duration("timeout", timeout),
		)
		return res, ErrTimedOut
	}

	if err != nil {
		subprocessTotal.WithLabelValues("error").Inc()
		r.logger.Debug("Процесс завершился с ошибкой",
			slog.String("command", name),
			slog.Int("exit_code", res.ExitCode),
			slog.Duration("duration", duration),
		)
		return res, fmt.Errorf("выполнение %s: %w", name, err)
	}

	subprocessTotal.WithLabelValues("success").Inc()
	r.logger.Debug("Процесс завершён",
		slog.String("command", name),
		slog.Int("stdout_bytes", len(res.Stdout)),
		slog.Duration("duration", duration),
	)
	return res, nil
}

// limitWriter — буфер с верхней границей размера. Запись сверх лимита
// отбрасывается, Write всегда репортит полный объём — процесс не получает
// EPIPE и спокойно дорабатывает.
type limitWriter struct {
	buf []byte
	max int64
}

func newLimitWriter(max int64) *limitWriter {
	return &limitWriter{max: max}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remain := w.max - int64(len(w.buf))
	if remain > 0 {
		if int64(len(p)) > remain {
			w.buf = append(w.buf, p[:remain]...)
		} else {
			w.buf = append(w.buf, p...)
		}
	}
	return len(p), nil
}

func (w *limitWriter) Bytes() []byte {
	return w.buf
}
