package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/auth"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticateInjectsActor(t *testing.T) {
	jwtMgr := auth.NewJWTManager(strings.Repeat("m", 32), time.Minute)
	want := actor.Actor{ID: uuid.New(), Kind: actor.KindCitizen}
	token, err := jwtMgr.GenerateAccessToken(want)
	require.NoError(t, err)

	var got actor.Actor
	h := Authenticate(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = actor.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, got)
}

func TestAuthenticateRejectsMissingOrBadToken(t *testing.T) {
	jwtMgr := auth.NewJWTManager(strings.Repeat("m", 32), time.Minute)
	h := Authenticate(jwtMgr)(http.HandlerFunc(okHandler))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer abc.def.ghi"} {
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), `"AUTH"`)
	}
}

func TestRequireKind(t *testing.T) {
	h := RequireKind(actor.KindStaff)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/zones", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := actor.WithActor(req.Context(), actor.Actor{ID: uuid.New(), Kind: actor.KindLeader})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ctx = actor.WithActor(req.Context(), actor.Actor{ID: uuid.New(), Kind: actor.KindStaff})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://painel.gov", "*.zeladoria.gov"})(http.HandlerFunc(okHandler))

	cases := map[string]bool{
		"https://painel.gov":        true,
		"https://app.zeladoria.gov": true,
		"https://zeladoria.gov":     false,
		"https://evil.com":          false,
	}
	for origin, allowed := range cases {
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if allowed {
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/reports", nil)
	req.Header.Set("Origin", "https://painel.gov")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestIPRateLimit(t *testing.T) {
	h := IPRateLimit(NewRateLimiter(0.001, 2))(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/citizens", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/citizens", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitRetryAfterFollowsRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(0.5, 1)
	limiter.now = func() time.Time { return now }
	h := IPRateLimit(limiter)(http.HandlerFunc(okHandler))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/citizens", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"RATE_LIMIT"`)

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, send().Code)
}

func TestActorRateLimitKeysByActor(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	h := ActorRateLimit(limiter)(http.HandlerFunc(okHandler))

	send := func(a *actor.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		if a != nil {
			req = req.WithContext(actor.WithActor(req.Context(), *a))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	ana := actor.Actor{ID: uuid.New(), Kind: actor.KindCitizen}
	lia := actor.Actor{ID: uuid.New(), Kind: actor.KindLeader}
	assert.Equal(t, http.StatusOK, send(&ana))
	assert.Equal(t, http.StatusTooManyRequests, send(&ana))
	assert.Equal(t, http.StatusOK, send(&lia))
	assert.Equal(t, http.StatusOK, send(nil))
	assert.Equal(t, http.StatusOK, send(nil))
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	_, ok := limiter.reserve("ip:10.0.0.1")
	require.True(t, ok)
	now = now.Add(limiterIdleTTL + limiterSweepEvery)
	_, ok = limiter.reserve("ip:10.0.0.2")
	require.True(t, ok)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "ip:10.0.0.1")
	assert.Contains(t, limiter.buckets, "ip:10.0.0.2")
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("falhou")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"INTERNAL"`)
}

func TestLoggingRecordsActorFromInnerGroup(t *testing.T) {
	jwtMgr := auth.NewJWTManager(strings.Repeat("m", 32), time.Minute)
	a := actor.Actor{ID: uuid.New(), Kind: actor.KindStaff}
	token, err := jwtMgr.GenerateAccessToken(a)
	require.NoError(t, err)

	var slot *actorSlot
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot, _ = r.Context().Value(actorSlotKey{}).(*actorSlot)
		w.WriteHeader(http.StatusNoContent)
	})
	h := Logging(nil)(Authenticate(jwtMgr)(inner))

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, slot)
	assert.True(t, slot.set)
	assert.Equal(t, a, slot.actor)
}
