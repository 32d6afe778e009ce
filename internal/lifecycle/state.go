package lifecycle

import (
	"sort"
	"strings"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

// State é o estado de um relato. O conjunto é fechado e definido em código.
type State string

const (
	StateNew              State = "new"
	StateApprovedByLeader State = "approved_by_leader"
	StateRejectedByLeader State = "rejected_by_leader"
	StateAssigned         State = "assigned"
	StateInProgress       State = "in_progress"
	StateResolved         State = "resolved"
	StateClosed           State = "closed"
	StateReopened         State = "reopened"
)

type stateInfo struct {
	order          int
	label          string
	terminal       bool
	allowsAssignee bool
}

var states = map[State]stateInfo{
	StateNew:              {order: 1, label: "Novo"},
	StateApprovedByLeader: {order: 2, label: "Aprovado pelo líder"},
	StateRejectedByLeader: {order: 3, label: "Rejeitado pelo líder", terminal: true},
	StateAssigned:         {order: 4, label: "Atribuído", allowsAssignee: true},
	StateInProgress:       {order: 5, label: "Em andamento", allowsAssignee: true},
	StateResolved:         {order: 6, label: "Resolvido", allowsAssignee: true},
	StateClosed:           {order: 7, label: "Fechado", terminal: true, allowsAssignee: true},
	StateReopened:         {order: 8, label: "Reaberto", allowsAssignee: true},
}

// Valid indica se o valor pertence à enumeração.
func (s State) Valid() bool {
	_, ok := states[s]
	return ok
}

// Order devolve a posição do estado na enumeração (0 quando inválido).
func (s State) Order() int {
	return states[s].order
}

// Label devolve o nome exibido.
func (s State) Label() string {
	return states[s].label
}

// Terminal indica que nenhuma transição parte deste estado.
func (s State) Terminal() bool {
	return states[s].terminal
}

// AllowsAssignee indica se o relato pode ter técnico atribuído neste estado.
func (s State) AllowsAssignee() bool {
	return states[s].allowsAssignee
}

// States lista todos os estados em ordem.
func States() []State {
	out := make([]State, 0, len(states))
	for s := range states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

// TerminalStates lista os estados terminais em ordem.
func TerminalStates() []State {
	var out []State
	for _, s := range States() {
		if s.Terminal() {
			out = append(out, s)
		}
	}
	return out
}

// TerminalStrings devolve os estados terminais como strings, para filtros SQL.
func TerminalStrings() []string {
	terminal := TerminalStates()
	out := make([]string, len(terminal))
	for i, s := range terminal {
		out[i] = string(s)
	}
	return out
}

// ParseState normaliza e valida um estado informado externamente.
func ParseState(raw string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Validation("estado inválido: %s", raw)
	}
	return s, nil
}
