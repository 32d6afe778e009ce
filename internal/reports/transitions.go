package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// Approve move um relato novo para aprovado pelo líder da zona.
func (s *Service) Approve(ctx context.Context, a actor.Actor, id uuid.UUID, comment string) (repo.Report, error) {
	return s.transition(ctx, a, id, lifecycle.ActionApprove, comment, nil)
}

// Reject encerra um relato novo; o motivo é obrigatório.
func (s *Service) Reject(ctx context.Context, a actor.Actor, id uuid.UUID, motive, comment string) (repo.Report, error) {
	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	m, err := lifecycle.ParseMotive(motive)
	if err != nil {
		return repo.Report{}, err
	}
	return s.transition(ctx, a, id, lifecycle.ActionReject, comment, &m)
}

// Start marca o início do atendimento pelo técnico atribuído.
func (s *Service) Start(ctx context.Context, a actor.Actor, id uuid.UUID, comment string) (repo.Report, error) {
	return s.transition(ctx, a, id, lifecycle.ActionStart, comment, nil)
}

// Resolve marca o relato como resolvido pelo técnico atribuído.
func (s *Service) Resolve(ctx context.Context, a actor.Actor, id uuid.UUID, comment string) (repo.Report, error) {
	return s.transition(ctx, a, id, lifecycle.ActionResolve, comment, nil)
}

// Validate registra a validação do líder: fecha quando aprovada, reabre caso contrário.
func (s *Service) Validate(ctx context.Context, a actor.Actor, id uuid.UUID, approved bool, comment string) (repo.Report, error) {
	action := lifecycle.ActionReopen
	if approved {
		action = lifecycle.ActionClose
	}
	return s.transition(ctx, a, id, action, comment, nil)
}

func (s *Service) transition(ctx context.Context, a actor.Actor, id uuid.UUID, action lifecycle.Action, comment string, motive *lifecycle.Motive) (out repo.Report, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveTransition(string(action), metrics.Outcome(err), start) }()

	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	comment, err = lifecycle.NormalizeComment(comment)
	if err != nil {
		return repo.Report{}, err
	}

	var done committed
	err = s.store.RunInTx(ctx, func(q Repository) error {
		r, err := loadActive(ctx, q, id)
		if err != nil {
			return err
		}

		t, err := lifecycle.Next(r.State, action)
		if err != nil {
			return err
		}
		if err := authorize(ctx, q, a, r, t); err != nil {
			return err
		}

		params := repo.UpdateReportStateParams{
			ID:            r.ID,
			Expected:      r.State,
			Next:          t.To,
			ClearAssignee: !t.To.AllowsAssignee(),
			ActorID:       a.ID,
			ActorKind:     string(a.Kind),
		}
		if t.Role == lifecycle.RoleZoneLeader {
			params.Coordinator = &a.ID
		}

		updated, err := q.UpdateReportState(ctx, params)
		if err != nil {
			return storeErr(err, r.State)
		}

		ev := repo.InsertReportEventParams{
			ReportID:  r.ID,
			Action:    action,
			FromState: &r.State,
			ToState:   updated.State,
			ActorID:   a.ID,
			ActorKind: string(a.Kind),
			Comment:   optional(comment),
			StaffID:   updated.AssignedStaffID,
		}
		if motive != nil {
			ev.Motive = optional(string(*motive))
		}
		if _, err := q.InsertReportEvent(ctx, ev); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}

		from := r.State
		done = committed{report: updated, from: &from, action: action, actor: a}
		return nil
	})
	if err != nil {
		return repo.Report{}, err
	}

	s.afterCommit(ctx, done)
	return done.report, nil
}

// ChangePriority altera a prioridade sem mudar o estado.
// Permitido a servidores ativos e a líderes da zona do relato.
func (s *Service) ChangePriority(ctx context.Context, a actor.Actor, id uuid.UUID, priority string) (out repo.Report, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveTransition(string(lifecycle.ActionPriority), metrics.Outcome(err), start) }()

	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	p, err := lifecycle.ParsePriority(priority)
	if err != nil {
		return repo.Report{}, err
	}

	var done committed
	err = s.store.RunInTx(ctx, func(q Repository) error {
		r, err := loadActive(ctx, q, id)
		if err != nil {
			return err
		}

		allowed := false
		switch a.Kind {
		case actor.KindStaff:
			st, err := lookupStaff(ctx, q, a)
			if err != nil {
				return err
			}
			allowed = st != nil
		case actor.KindLeader:
			allowed, err = isZoneLeader(ctx, q, a, r)
			if err != nil {
				return err
			}
		}
		if !allowed {
			return apperr.Forbidden("apenas servidores ou líderes da zona alteram a prioridade")
		}

		updated, err := q.UpdateReportPriority(ctx, r.ID, p, a.ID, string(a.Kind))
		if err != nil {
			return storeErr(err, r.State)
		}

		if _, err := q.InsertReportEvent(ctx, repo.InsertReportEventParams{
			ReportID:  r.ID,
			Action:    lifecycle.ActionPriority,
			FromState: &r.State,
			ToState:   updated.State,
			ActorID:   a.ID,
			ActorKind: string(a.Kind),
			Priority:  optional(string(p)),
		}); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}

		from := r.State
		done = committed{report: updated, from: &from, action: lifecycle.ActionPriority, actor: a}
		return nil
	})
	if err != nil {
		return repo.Report{}, err
	}

	s.afterCommit(ctx, done)
	return done.report, nil
}

// requiresAssignee são os estados que não fazem sentido sem técnico.
var requiresAssignee = map[lifecycle.State]bool{
	lifecycle.StateAssigned:   true,
	lifecycle.StateInProgress: true,
	lifecycle.StateResolved:   true,
}

// OverrideState força um estado fora da tabela de transições.
// Restrito a administradores ativos, exige comentário e fica registrado no histórico.
func (s *Service) OverrideState(ctx context.Context, a actor.Actor, id uuid.UUID, target, comment string) (out repo.Report, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveTransition(string(lifecycle.ActionOverride), metrics.Outcome(err), start) }()

	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	to, err := lifecycle.ParseState(target)
	if err != nil {
		return repo.Report{}, err
	}
	comment, err = lifecycle.NormalizeComment(comment)
	if err != nil {
		return repo.Report{}, err
	}
	if strings.TrimSpace(comment) == "" {
		return repo.Report{}, apperr.Validation("comentário obrigatório para alteração administrativa")
	}

	var done committed
	err = s.store.RunInTx(ctx, func(q Repository) error {
		admin, err := isAdministrator(ctx, q, a)
		if err != nil {
			return err
		}
		if !admin {
			return apperr.Forbidden("apenas administradores ativos podem forçar o estado")
		}

		r, err := loadActive(ctx, q, id)
		if err != nil {
			return err
		}
		if r.State == to {
			return apperr.Validation("relato já está no estado %s", to)
		}
		if requiresAssignee[to] && r.AssignedStaffID == nil {
			return apperr.Validation("estado %s exige técnico atribuído", to)
		}

		updated, err := q.UpdateReportState(ctx, repo.UpdateReportStateParams{
			ID:            r.ID,
			Expected:      r.State,
			Next:          to,
			ClearAssignee: !to.AllowsAssignee(),
			ActorID:       a.ID,
			ActorKind:     string(a.Kind),
		})
		if err != nil {
			return storeErr(err, r.State)
		}

		if _, err := q.InsertReportEvent(ctx, repo.InsertReportEventParams{
			ReportID:  r.ID,
			Action:    lifecycle.ActionOverride,
			FromState: &r.State,
			ToState:   updated.State,
			ActorID:   a.ID,
			ActorKind: string(a.Kind),
			Comment:   optional(comment),
			StaffID:   updated.AssignedStaffID,
		}); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}

		from := r.State
		done = committed{report: updated, from: &from, action: lifecycle.ActionOverride, actor: a}
		return nil
	})
	if err != nil {
		return repo.Report{}, err
	}

	s.afterCommit(ctx, done)
	return done.report, nil
}
