package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/zeladoria/internal/guard"
)

// mountDeactivation expõe a verificação e a desativação sob /{id} do cadastro.
func (h *Handler) mountDeactivation(r chi.Router, entity guard.Entity) {
	r.Get("/{id}/deactivation", h.canDeactivate(entity))
	r.Delete("/{id}", h.deactivate(entity))
}

func (h *Handler) canDeactivate(entity guard.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		check, err := h.guard.CanDeactivate(r.Context(), entity, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, check)
	}
}

func (h *Handler) deactivate(entity guard.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		check, err := h.guard.Deactivate(r.Context(), requestActor(r), entity, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, check)
	}
}
