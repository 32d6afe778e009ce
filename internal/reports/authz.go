package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// authorize confere se o ator exerce o papel exigido pela aresta.
// Falha de papel é devolvida como InvalidTransition com o motivo.
func authorize(ctx context.Context, q Repository, a actor.Actor, r repo.Report, t lifecycle.Transition) error {
	deny := func(reason string) error {
		return apperr.InvalidTransition(string(r.State), string(t.To), reason)
	}

	switch t.Role {
	case lifecycle.RoleZoneLeader:
		ok, err := isZoneLeader(ctx, q, a, r)
		if err != nil {
			return err
		}
		if !ok {
			return deny("ator não é líder ativo da zona do relato")
		}
	case lifecycle.RoleAssigner:
		ok, err := isAssigner(ctx, q, a)
		if err != nil {
			return err
		}
		if !ok {
			return deny("ator não é servidor ativo com permissão de atribuir")
		}
	case lifecycle.RoleAssignee:
		if a.Kind != actor.KindStaff || r.AssignedStaffID == nil || *r.AssignedStaffID != a.ID {
			return deny("ator não é o técnico atribuído")
		}
		st, err := lookupStaff(ctx, q, a)
		if err != nil {
			return err
		}
		if st == nil {
			return deny("técnico atribuído está inativo")
		}
	default:
		return fmt.Errorf("papel desconhecido: %s", t.Role)
	}
	return nil
}

// isZoneLeader trava o líder em modo compartilhado para impedir desativação concorrente.
func isZoneLeader(ctx context.Context, q Repository, a actor.Actor, r repo.Report) (bool, error) {
	if a.Kind != actor.KindLeader {
		return false, nil
	}
	l, err := q.GetLeader(ctx, a.ID, repo.LockShare)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("carregar líder: %w", err)
	}
	return l.Active && l.ZoneID == r.ZoneID, nil
}

func isAssigner(ctx context.Context, q Repository, a actor.Actor) (bool, error) {
	st, err := lookupStaff(ctx, q, a)
	if err != nil || st == nil {
		return false, err
	}
	return st.CanAssign, nil
}

func isAdministrator(ctx context.Context, q Repository, a actor.Actor) (bool, error) {
	st, err := lookupStaff(ctx, q, a)
	if err != nil || st == nil {
		return false, err
	}
	return st.Kind == repo.StaffAdministrator, nil
}

// lookupStaff devolve nil quando o ator não é servidor ativo.
func lookupStaff(ctx context.Context, q Repository, a actor.Actor) (*repo.Staff, error) {
	if a.Kind != actor.KindStaff {
		return nil, nil
	}
	st, err := q.GetStaff(ctx, a.ID, repo.LockShare)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("carregar servidor: %w", err)
	}
	if !st.Active {
		return nil, nil
	}
	return &st, nil
}
