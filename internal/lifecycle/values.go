package lifecycle

import (
	"strings"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

// Priority classifica a urgência de um relato.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority aceita apenas high, medium ou low; vazio não tem valor padrão.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", apperr.ValidationCode(apperr.CodeInvalidPriority, "prioridade inválida: use high, medium ou low")
}

// Motive é o motivo de rejeição escolhido pelo líder.
type Motive string

const (
	MotiveDuplicate              Motive = "duplicate"
	MotiveInsufficientInfo       Motive = "insufficient_information"
	MotiveNotMunicipalCompetence Motive = "not_municipal_competence"
	MotivePrivateProperty        Motive = "private_property"
	MotiveAlreadyAttended        Motive = "already_attended"
	MotiveOther                  Motive = "other"
)

var motives = map[Motive]struct{}{
	MotiveDuplicate:              {},
	MotiveInsufficientInfo:       {},
	MotiveNotMunicipalCompetence: {},
	MotivePrivateProperty:        {},
	MotiveAlreadyAttended:        {},
	MotiveOther:                  {},
}

// ParseMotive exige motivo presente e pertencente ao conjunto fechado.
func ParseMotive(raw string) (Motive, error) {
	m := Motive(strings.ToLower(strings.TrimSpace(raw)))
	if m == "" {
		return "", apperr.ValidationCode(apperr.CodeMissingMotive, "motivo de rejeição obrigatório")
	}
	if _, ok := motives[m]; !ok {
		return "", apperr.Validation("motivo de rejeição inválido: %s", raw)
	}
	return m, nil
}

// MaxCommentLength limita comentários anexados a transições.
const MaxCommentLength = 1000

// NormalizeComment apara o comentário e valida o tamanho.
func NormalizeComment(raw string) (string, error) {
	c := strings.TrimSpace(raw)
	if len([]rune(c)) > MaxCommentLength {
		return "", apperr.Validation("comentário excede %d caracteres", MaxCommentLength)
	}
	return c, nil
}
