package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/auth"
)

// Authenticate valida o JWT de acesso e injeta o ator explícito no contexto.
// Sub é o id do cadastro e a audience diz qual cadastro (leader, citizen, staff).
func Authenticate(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			a, err := claims.Actor()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "identidade inválida")
				return
			}

			recordActor(r, a)
			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
