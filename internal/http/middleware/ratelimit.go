package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gestaozabele/zeladoria/internal/actor"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

// RateLimiter guarda um token bucket por chave. Buckets sem uso por
// limiterIdleTTL são descartados na varredura seguinte.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter cria o limitador com a taxa por segundo e a rajada dadas.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// reserve consome um token da chave. Quando não há token, devolve quanto
// falta para o próximo e não consome nada.
func (r *RateLimiter) reserve(key string) (time.Duration, bool) {
	now := r.now()

	r.mu.Lock()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	if now.Sub(r.lastSweep) >= limiterSweepEvery {
		r.sweep(now)
	}
	r.mu.Unlock()

	res := b.lim.ReserveN(now, 1)
	if !res.OK() {
		return limiterIdleTTL, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (r *RateLimiter) sweep(now time.Time) {
	for k, b := range r.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(r.buckets, k)
		}
	}
	r.lastSweep = now
}

// Limit aplica o limitador com a chave extraída da requisição. Sem chave a
// requisição segue sem limite.
func (r *RateLimiter) Limit(key func(*http.Request) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			k, ok := key(req)
			if !ok || k == "" {
				next.ServeHTTP(w, req)
				return
			}
			if wait, allowed := r.reserve(k); !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// IPRateLimit limita pelo IP do cliente. RemoteAddr já vem ajustado pelo
// middleware RealIP do chi.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.Limit(func(r *http.Request) (string, bool) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		return "ip:" + host, host != ""
	})
}

// ActorRateLimit limita por ator autenticado, independente do IP.
func ActorRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.Limit(func(r *http.Request) (string, bool) {
		a, ok := actor.FromContext(r.Context())
		if !ok {
			return "", false
		}
		return "actor:" + a.String(), true
	})
}
