package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	idleLimiterTTL   = 10 * time.Minute
	sweepInterval    = time.Minute
	maxRetryAfterSec = 60
)

// RateLimiter guarda um token bucket por cliente (IP ou usuário).
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter cria o limitador com reqPerSec requisições por segundo e rajada burst.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(reqPerSec),
		burst:   burst,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// allow consome uma ficha do cliente; buckets ociosos são descartados a cada minuto.
func (r *RateLimiter) allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		for k, b := range r.buckets {
			if now.Sub(b.lastSeen) > idleLimiterTTL {
				delete(r.buckets, k)
			}
		}
		r.lastSweep = now
	}

	b, ok := r.buckets[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.buckets[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// retryAfter estima em segundos quando a próxima ficha fica disponível.
func (r *RateLimiter) retryAfter() int {
	if r.rps <= 0 {
		return maxRetryAfterSec
	}
	secs := int(math.Ceil(1 / float64(r.rps)))
	return min(max(secs, 1), maxRetryAfterSec)
}

func (r *RateLimiter) middleware(clientOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			client := clientOf(req)
			if client != "" && !r.allow(client) {
				w.Header().Set("Retry-After", strconv.Itoa(r.retryAfter()))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "Limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// IPRateLimit limita as rotas públicas pelo IP de origem.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.middleware(realIPFromRequest)
}

// UserRateLimit limita as rotas autenticadas pelo id do usuário; sem usuário no contexto não limita.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.middleware(func(r *http.Request) string {
		user, ok := GetUser(r.Context())
		if !ok {
			return ""
		}
		return user.ID.String()
	})
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
