package http

import (
	"net/http"

	"github.com/gestaozabele/zeladoria/internal/registry"
)

// CreateZone cria zona e junta principal.
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var in registry.ZoneInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateZone(r.Context(), requestActor(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

// UpdateZone altera zona e, opcionalmente, a junta principal.
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in registry.ZoneInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.UpdateZone(r.Context(), requestActor(r), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	out, err := h.registry.ListZones(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.GetZone(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// CreateSubCouncil cria subjunta sob a junta principal da zona.
func (h *Handler) CreateSubCouncil(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in registry.SubCouncilInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateSubCouncil(r.Context(), requestActor(r), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListCouncils(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.ListCouncils(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListCouncilLeaders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.ListLeaders(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateLeader(w http.ResponseWriter, r *http.Request) {
	var in registry.LeaderInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateLeader(r.Context(), requestActor(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) GetLeader(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.GetLeader(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// RegisterCitizen é o autocadastro público do cidadão.
func (h *Handler) RegisterCitizen(w http.ResponseWriter, r *http.Request) {
	var in registry.CitizenInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateCitizen(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) GetCitizen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.GetCitizen(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var in registry.StaffInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateStaff(r.Context(), requestActor(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

// ListStaff aceita kind e department.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.registry.ListStaff(r.Context(), registry.StaffFilter{Kind: q.Get("kind"), Department: q.Get("department")})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.GetStaff(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateProblemType(w http.ResponseWriter, r *http.Request) {
	var in registry.ProblemTypeInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.registry.CreateProblemType(r.Context(), requestActor(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) ListProblemTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.registry.ListProblemTypes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
