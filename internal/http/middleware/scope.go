package middleware

import (
	"net/http"

	"github.com/gestaozabele/zeladoria/internal/actor"
)

// RequireKind restringe o grupo de rotas aos cadastros informados.
// A permissão fina (zona, administrador, atribuidor) continua nos serviços.
func RequireKind(kinds ...actor.Kind) func(http.Handler) http.Handler {
	allowed := make(map[actor.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actor.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "ator não identificado")
				return
			}
			if _, ok := allowed[a.Kind]; !ok {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso não permitido para "+string(a.Kind))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
