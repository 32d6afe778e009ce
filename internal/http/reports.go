package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/reports"
)

// CreateReport abre um relato em nome do líder ou cidadão autenticado.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var in reports.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.reports.Create(r.Context(), requestActor(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, out)
}

// ListReports aceita zone_id, state, assigned_staff_id, creator_id, limit e offset.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	var (
		filter reports.ListFilter
		err    error
	)
	if filter.ZoneID, err = queryID(r, "zone_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if filter.AssignedStaffID, err = queryID(r, "assigned_staff_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if filter.CreatorID, err = queryID(r, "creator_id"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	filter.State = r.URL.Query().Get("state")

	out, err := h.reports.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// GetReport devolve um relato ativo.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// ReportHistory devolve as mudanças registradas do relato.
func (h *Handler) ReportHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.reports.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// EligibleTechnicians lista técnicos ativos do departamento do relato.
func (h *Handler) EligibleTechnicians(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out, err := h.reports.EligibleTechnicians(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

type transitionRequest struct {
	Comment  string    `json:"comment"`
	Motive   string    `json:"motive"`
	StaffID  uuid.UUID `json:"staff_id"`
	Approved *bool     `json:"approved"`
	State    string    `json:"state"`
	Priority string    `json:"priority"`
}

// reportAction adapta uma intenção do ciclo de vida a um handler.
func (h *Handler) reportAction(act func(*http.Request, uuid.UUID, transitionRequest) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		var body transitionRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &body); err != nil {
				writeServiceError(w, r, err)
				return
			}
		}
		out, err := act(r, id, body)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, out)
	}
}

func (h *Handler) approveReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.Approve(r.Context(), requestActor(r), id, b.Comment)
}

func (h *Handler) rejectReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.Reject(r.Context(), requestActor(r), id, b.Motive, b.Comment)
}

func (h *Handler) assignReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.Assign(r.Context(), requestActor(r), id, b.StaffID)
}

func (h *Handler) startReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.Start(r.Context(), requestActor(r), id, b.Comment)
}

func (h *Handler) resolveReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.Resolve(r.Context(), requestActor(r), id, b.Comment)
}

func (h *Handler) validateReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	if b.Approved == nil {
		return nil, apperr.Validation("approved obrigatório")
	}
	return h.reports.Validate(r.Context(), requestActor(r), id, *b.Approved, b.Comment)
}

func (h *Handler) overrideReport(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.OverrideState(r.Context(), requestActor(r), id, b.State, b.Comment)
}

func (h *Handler) changePriority(r *http.Request, id uuid.UUID, b transitionRequest) (any, error) {
	return h.reports.ChangePriority(r.Context(), requestActor(r), id, b.Priority)
}

type stateView struct {
	State          lifecycle.State `json:"state"`
	Label          string          `json:"label"`
	Order          int             `json:"order"`
	Terminal       bool            `json:"terminal"`
	AllowsAssignee bool            `json:"allows_assignee"`
}

// ReportLifecycle descreve os estados e as transições permitidas para as telas.
func (h *Handler) ReportLifecycle(w http.ResponseWriter, _ *http.Request) {
	states := make([]stateView, 0, len(lifecycle.States()))
	for _, s := range lifecycle.States() {
		states = append(states, stateView{
			State:          s,
			Label:          s.Label(),
			Order:          s.Order(),
			Terminal:       s.Terminal(),
			AllowsAssignee: s.AllowsAssignee(),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"states":      states,
		"transitions": lifecycle.Table(),
	})
}
