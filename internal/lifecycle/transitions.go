package lifecycle

import "github.com/gestaozabele/zeladoria/internal/apperr"

// Action é a intenção que move um relato entre estados.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionAssign  Action = "assign"
	ActionStart   Action = "start"
	ActionResolve Action = "resolve"
	ActionClose   Action = "close"
	ActionReopen  Action = "reopen"

	// Ações registradas no histórico que não passam pela tabela.
	ActionCreate   Action = "create"
	ActionPriority Action = "change_priority"
	ActionOverride Action = "admin_override"
)

// Role é o papel que o ator precisa exercer sobre o relato.
type Role string

const (
	// RoleZoneLeader é um líder cuja zona é a zona do relato.
	RoleZoneLeader Role = "zone_leader"
	// RoleAssigner é um servidor ativo com permissão de atribuir.
	RoleAssigner Role = "assigner"
	// RoleAssignee é o técnico atualmente atribuído ao relato.
	RoleAssignee Role = "assignee"
)

// Transition é uma aresta permitida do ciclo de vida.
type Transition struct {
	From   State  `json:"from"`
	To     State  `json:"to"`
	Action Action `json:"action"`
	Role   Role   `json:"role"`
}

var table = []Transition{
	{From: StateNew, To: StateApprovedByLeader, Action: ActionApprove, Role: RoleZoneLeader},
	{From: StateNew, To: StateRejectedByLeader, Action: ActionReject, Role: RoleZoneLeader},
	{From: StateApprovedByLeader, To: StateAssigned, Action: ActionAssign, Role: RoleAssigner},
	{From: StateAssigned, To: StateInProgress, Action: ActionStart, Role: RoleAssignee},
	{From: StateInProgress, To: StateResolved, Action: ActionResolve, Role: RoleAssignee},
	{From: StateResolved, To: StateClosed, Action: ActionClose, Role: RoleZoneLeader},
	{From: StateResolved, To: StateReopened, Action: ActionReopen, Role: RoleZoneLeader},
	{From: StateReopened, To: StateAssigned, Action: ActionAssign, Role: RoleAssigner},
}

var actionTargets = map[Action]State{
	ActionApprove: StateApprovedByLeader,
	ActionReject:  StateRejectedByLeader,
	ActionAssign:  StateAssigned,
	ActionStart:   StateInProgress,
	ActionResolve: StateResolved,
	ActionClose:   StateClosed,
	ActionReopen:  StateReopened,
}

// Table devolve uma cópia da tabela de transições.
func Table() []Transition {
	out := make([]Transition, len(table))
	copy(out, table)
	return out
}

// Next resolve a transição para a ação a partir do estado atual.
// Falha com InvalidTransition nomeando o estado atual e o solicitado.
func Next(from State, action Action) (Transition, error) {
	for _, t := range table {
		if t.From == from && t.Action == action {
			return t, nil
		}
	}
	requested := string(action)
	if to, ok := actionTargets[action]; ok {
		requested = string(to)
	}
	reason := ""
	if from.Terminal() {
		reason = "estado terminal"
	}
	return Transition{}, apperr.InvalidTransition(string(from), requested, reason)
}
