package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/metrics"
)

// Logging escreve logs estruturados por requisição e alimenta as métricas HTTP.
// m pode ser nil.
func Logging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			slot := &actorSlot{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), actorSlotKey{}, slot)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			m.ObserveHTTP(route, r.Method, status, start)

			event := levelFor(status).Str("method", r.Method).Str("path", r.URL.Path).
				Str("route", route).Int("status", status).Dur("duration", time.Since(start))

			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			event = event.Str("ip", realIPFromRequest(r))
			if slot.set {
				event = event.Str("actor", slot.actor.String())
			}
			if ua := r.Header.Get("User-Agent"); ua != "" {
				event = event.Str("user_agent", ua)
			}

			event.Msg("http_request")
		})
	}
}

// actorSlot recebe o ator autenticado em grupos internos do roteador.
type actorSlot struct {
	actor actor.Actor
	set   bool
}

type actorSlotKey struct{}

func recordActor(r *http.Request, a actor.Actor) {
	if slot, ok := r.Context().Value(actorSlotKey{}).(*actorSlot); ok {
		slot.actor = a
		slot.set = true
	}
}

func levelFor(status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	default:
		return log.Info()
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
