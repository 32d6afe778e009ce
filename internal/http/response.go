package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
)

const maxBodyBytes = 1 << 20

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindInvalidTransition:  http.StatusConflict,
	apperr.KindDepartmentMismatch: http.StatusUnprocessableEntity,
	apperr.KindStaleState:         http.StatusConflict,
	apperr.KindBlocked:            http.StatusConflict,
	apperr.KindConflict:           http.StatusConflict,
}

// writeServiceError traduz erros de serviço; falhas inesperadas viram INTERNAL opaco.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := apperr.As(err); ok {
		status, known := kindStatus[e.Kind]
		if known {
			WriteError(w, status, e.ErrorCode(), e.Message, e.Details)
			return
		}
	}

	log.Error().Err(err).
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("falha inesperada")
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("corpo da requisição vazio")
		}
		return apperr.Validation("JSON inválido")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("%s inválido", name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("%s inválido", name)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s inválido", name)
	}
	return n, nil
}

// requestActor devolve o ator autenticado; rotas privadas sempre o têm.
func requestActor(r *http.Request) actor.Actor {
	a, _ := actor.FromContext(r.Context())
	return a
}
