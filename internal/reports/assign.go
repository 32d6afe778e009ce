package reports

import (
	"context"
	"errors"
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

// SameDepartment compara departamentos sem diferenciar maiúsculas e espaços nas pontas.
func SameDepartment(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// Assign vincula um técnico ao relato. As pré-condições são avaliadas em ordem
// e a primeira falha é devolvida: relato ativo, estado aprovado ou reaberto,
// ator com permissão de atribuir, técnico ativo e departamento compatível.
func (s *Service) Assign(ctx context.Context, a actor.Actor, id, staffID uuid.UUID) (out repo.Report, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveTransition(string(lifecycle.ActionAssign), metrics.Outcome(err), start) }()

	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	if staffID == uuid.Nil {
		return repo.Report{}, apperr.Validation("técnico obrigatório")
	}

	var done committed
	err = s.store.RunInTx(ctx, func(q Repository) error {
		r, err := loadActive(ctx, q, id)
		if err != nil {
			return err
		}

		t, err := lifecycle.Next(r.State, lifecycle.ActionAssign)
		if err != nil {
			return err
		}
		if err := authorize(ctx, q, a, r, t); err != nil {
			return err
		}

		tech, err := q.GetStaff(ctx, staffID, repo.LockShare)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.StaffNotFound()
			}
			return fmt.Errorf("carregar técnico: %w", err)
		}
		if !tech.Active || tech.Kind != repo.StaffTechnician {
			return apperr.StaffNotFound()
		}

		pt, err := q.GetProblemType(ctx, r.ProblemTypeID, repo.LockNone)
		if err != nil {
			return fmt.Errorf("carregar tipo de problema: %w", err)
		}
		if !SameDepartment(tech.DepartmentName(), pt.Department) {
			return apperr.DepartmentMismatch(strings.TrimSpace(tech.DepartmentName()), strings.TrimSpace(pt.Department))
		}

		updated, err := q.AssignReport(ctx, repo.AssignReportParams{
			ID:         r.ID,
			Expected:   r.State,
			StaffID:    tech.ID,
			AssignedBy: a.ID,
			AssignedAt: s.now(),
		})
		if err != nil {
			return storeErr(err, r.State)
		}

		if _, err := q.InsertReportEvent(ctx, repo.InsertReportEventParams{
			ReportID:  r.ID,
			Action:    lifecycle.ActionAssign,
			FromState: &r.State,
			ToState:   updated.State,
			ActorID:   a.ID,
			ActorKind: string(a.Kind),
			StaffID:   &tech.ID,
		}); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}

		from := r.State
		done = committed{report: updated, from: &from, action: lifecycle.ActionAssign, actor: a}
		return nil
	})
	if err != nil {
		return repo.Report{}, err
	}

	s.logger.Info().
		Str("report_id", done.report.ID.String()).
		Str("staff_id", staffID.String()).
		Str("from", string(*done.from)).
		Msg("técnico atribuído")

	s.afterCommit(ctx, done)
	return done.report, nil
}

// EligibleTechnicians lista técnicos ativos do departamento responsável pelo relato.
func (s *Service) EligibleTechnicians(ctx context.Context, id uuid.UUID) ([]repo.Staff, error) {
	var out []repo.Staff
	err := s.store.Read(ctx, func(q Repository) error {
		r, err := loadActive(ctx, q, id)
		if err != nil {
			return err
		}
		pt, err := q.GetProblemType(ctx, r.ProblemTypeID, repo.LockNone)
		if err != nil {
			return fmt.Errorf("carregar tipo de problema: %w", err)
		}
		staff, err := q.ListStaff(ctx, repo.StaffFilter{
			Kind:       repo.StaffTechnician,
			Department: pt.Department,
			ActiveOnly: true,
		})
		if err != nil {
			return fmt.Errorf("listar técnicos: %w", err)
		}
		out = staff
		return nil
	})
	if err == nil && out == nil {
		out = []repo.Staff{}
	}
	return out, err
}
