// ratelimit.go — admission control: лимит запросов на клиента
// в фиксированном окне. Применяется ко всем маршрутам под /api/.
//
// Семантика фиксированного окна: не более limit допущенных запросов
// с одного IP за окно, сверхлимитные получают единообразный 429 без
// какой-либо обработки; по истечении окна счётчик сбрасывается.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rateLimitMessage — единообразный текст отказа.
const rateLimitMessage = "Too many requests, please try again later."

// Prometheus-метрики rate limiter.
var rateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dm_ratelimit_rejected_total",
	Help: "Количество запросов, отклонённых rate limiter'ом.",
})

// clientWindow — счётчик одного клиента в текущем окне.
type clientWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter — лимитер фиксированного окна по IP клиента.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time // инжектируется в тестах

	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastPrune time.Time
}

// NewRateLimiter создаёт лимитер: не более limit запросов на клиента
// за window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
}

// Middleware возвращает HTTP middleware admission control.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientKey(r)) {
				rateLimitRejectedTotal.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": rateLimitMessage,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow регистрирует запрос клиента и сообщает, допущен ли он.
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(now)

	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.windowStart) >= rl.window {
		cw = &clientWindow{windowStart: now}
		rl.clients[key] = cw
	}

	if cw.count >= rl.limit {
		return false
	}
	cw.count++
	return true
}

// pruneLocked удаляет клиентов с истёкшим окном. Запускается не чаще
// одного раза за окно, под уже взятым mu.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.window {
		return
	}
	rl.lastPrune = now
	for key, cw := range rl.clients {
		if now.Sub(cw.windowStart) >= rl.window {
			delete(rl.clients, key)
		}
	}
}

// clientKey возвращает ключ клиента — host-часть RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
