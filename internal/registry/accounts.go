package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/repo"
	"github.com/gestaozabele/zeladoria/internal/util"
)

// Credentials são os campos comuns a toda conta.
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) validate() error {
	if err := util.RequireString(c.Name, "nome"); err != nil {
		return err
	}
	if err := util.ValidateEmail(c.Email); err != nil {
		return err
	}
	return util.ValidatePassword(c.Password)
}

func (s *Service) uniqueEmail(ctx context.Context, q Repository, table repo.AccountTable, email string) error {
	taken, err := q.EmailTaken(ctx, table, email)
	if err != nil {
		return fmt.Errorf("verificar email: %w", err)
	}
	if taken {
		return apperr.Conflict("email", strings.ToLower(strings.TrimSpace(email)))
	}
	return nil
}

// LeaderInput cadastra líder de junta principal ou de subjunta.
type LeaderInput struct {
	Credentials
	Kind      string    `json:"kind"`
	CouncilID uuid.UUID `json:"council_id"`
}

// CreateLeader cadastra o líder; o tipo define se a junta deve ser principal ou subjunta.
func (s *Service) CreateLeader(ctx context.Context, a actor.Actor, in LeaderInput) (repo.Leader, error) {
	if err := a.Validate(); err != nil {
		return repo.Leader{}, err
	}
	if err := in.validate(); err != nil {
		return repo.Leader{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind != repo.LeaderPrincipal && kind != repo.LeaderSub {
		return repo.Leader{}, apperr.Validation("tipo de líder deve ser principal ou sub")
	}
	if in.CouncilID == uuid.Nil {
		return repo.Leader{}, apperr.Validation("junta obrigatória")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return repo.Leader{}, fmt.Errorf("gerar hash de senha: %w", err)
	}

	var out repo.Leader
	err = s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}

		council, err := q.GetCouncil(ctx, in.CouncilID, repo.LockShare)
		if err != nil {
			return notFound("junta", err)
		}
		if !council.Active {
			return apperr.NotFound("junta")
		}
		if council.IsPrincipal != (kind == repo.LeaderPrincipal) {
			return apperr.Validation("líder %s não pode ser vinculado a esta junta", kind)
		}
		if err := s.uniqueEmail(ctx, q, repo.AccountLeaders, in.Email); err != nil {
			return err
		}

		params := repo.CreateLeaderParams{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			Kind:         kind,
			CreatedBy:    a.ID,
		}
		if kind == repo.LeaderPrincipal {
			params.PrincipalCouncilID = &council.ID
		} else {
			params.SubCouncilID = &council.ID
		}

		out, err = q.CreateLeader(ctx, params)
		return conflictOr(err, in.Email, "inserir líder")
	})
	return out, err
}

// CitizenInput é o autocadastro do cidadão.
type CitizenInput struct {
	Credentials
	ZoneID              *uuid.UUID `json:"zone_id"`
	NearestSubCouncilID *uuid.UUID `json:"nearest_sub_council_id"`
}

// CreateCitizen cadastra um cidadão. É a única operação de cadastro sem ator,
// e cria somente a conta.
func (s *Service) CreateCitizen(ctx context.Context, in CitizenInput) (repo.Citizen, error) {
	if err := in.validate(); err != nil {
		return repo.Citizen{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return repo.Citizen{}, fmt.Errorf("gerar hash de senha: %w", err)
	}

	var out repo.Citizen
	err = s.store.RunInTx(ctx, func(q Repository) error {
		if in.ZoneID != nil {
			z, err := q.GetZone(ctx, *in.ZoneID, repo.LockShare)
			if err != nil {
				return notFound("zona", err)
			}
			if !z.Active {
				return apperr.NotFound("zona")
			}
		}
		if in.NearestSubCouncilID != nil {
			c, err := q.GetCouncil(ctx, *in.NearestSubCouncilID, repo.LockShare)
			if err != nil {
				return notFound("subjunta", err)
			}
			if !c.Active || c.IsPrincipal {
				return apperr.NotFound("subjunta")
			}
			if in.ZoneID != nil && c.ZoneID != *in.ZoneID {
				return apperr.Validation("subjunta não pertence à zona informada")
			}
		}
		if err := s.uniqueEmail(ctx, q, repo.AccountCitizens, in.Email); err != nil {
			return err
		}

		var err error
		out, err = q.CreateCitizen(ctx, repo.CreateCitizenParams{
			Name:                in.Name,
			Email:               in.Email,
			PasswordHash:        hash,
			ZoneID:              in.ZoneID,
			NearestSubCouncilID: in.NearestSubCouncilID,
		})
		return conflictOr(err, in.Email, "inserir cidadão")
	})
	return out, err
}

// StaffInput cadastra administrador ou técnico.
type StaffInput struct {
	Credentials
	Kind       string `json:"kind"`
	Department string `json:"department"`
	CanAssign  bool   `json:"can_assign"`
}

// CreateStaff cadastra servidor; técnicos exigem departamento.
func (s *Service) CreateStaff(ctx context.Context, a actor.Actor, in StaffInput) (repo.Staff, error) {
	if err := a.Validate(); err != nil {
		return repo.Staff{}, err
	}
	if err := in.validate(); err != nil {
		return repo.Staff{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind != repo.StaffAdministrator && kind != repo.StaffTechnician {
		return repo.Staff{}, apperr.Validation("tipo de servidor deve ser administrator ou technician")
	}
	department := util.OptionalString(in.Department)
	if kind == repo.StaffTechnician && department == nil {
		return repo.Staff{}, apperr.Validation("departamento obrigatório para técnicos")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return repo.Staff{}, fmt.Errorf("gerar hash de senha: %w", err)
	}

	var out repo.Staff
	err = s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}
		if err := s.uniqueEmail(ctx, q, repo.AccountStaff, in.Email); err != nil {
			return err
		}

		var err error
		out, err = q.CreateStaff(ctx, repo.CreateStaffParams{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			Kind:         kind,
			Department:   department,
			CanAssign:    in.CanAssign,
			CreatedBy:    &a.ID,
		})
		return conflictOr(err, in.Email, "inserir servidor")
	})
	return out, err
}

// BootstrapAdministrator cria o primeiro administrador, sem ator, pela linha de comando.
func (s *Service) BootstrapAdministrator(ctx context.Context, in Credentials) (repo.Staff, error) {
	if err := in.validate(); err != nil {
		return repo.Staff{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return repo.Staff{}, fmt.Errorf("gerar hash de senha: %w", err)
	}

	var out repo.Staff
	err = s.store.RunInTx(ctx, func(q Repository) error {
		admins, err := q.ListStaff(ctx, repo.StaffFilter{Kind: repo.StaffAdministrator, ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("listar administradores: %w", err)
		}
		if len(admins) > 0 {
			return apperr.Conflict("administrador", "já existe administrador ativo")
		}
		if err := s.uniqueEmail(ctx, q, repo.AccountStaff, in.Email); err != nil {
			return err
		}
		out, err = q.CreateStaff(ctx, repo.CreateStaffParams{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			Kind:         repo.StaffAdministrator,
			CanAssign:    true,
		})
		return conflictOr(err, in.Email, "inserir administrador")
	})
	return out, err
}

// GetLeader devolve um líder ativo.
func (s *Service) GetLeader(ctx context.Context, id uuid.UUID) (repo.Leader, error) {
	var out repo.Leader
	err := s.store.Read(ctx, func(q Repository) error {
		l, err := q.GetLeader(ctx, id, repo.LockNone)
		if err != nil {
			return notFound("líder", err)
		}
		if !l.Active {
			return apperr.NotFound("líder")
		}
		out = l
		return nil
	})
	return out, err
}

// ListLeaders lista os líderes ativos de uma junta.
func (s *Service) ListLeaders(ctx context.Context, councilID uuid.UUID) ([]repo.Leader, error) {
	var out []repo.Leader
	err := s.store.Read(ctx, func(q Repository) error {
		leaders, err := q.ListLeadersByCouncil(ctx, councilID)
		if err != nil {
			return fmt.Errorf("listar líderes: %w", err)
		}
		out = leaders
		return nil
	})
	if err == nil && out == nil {
		out = []repo.Leader{}
	}
	return out, err
}

// GetCitizen devolve um cidadão ativo.
func (s *Service) GetCitizen(ctx context.Context, id uuid.UUID) (repo.Citizen, error) {
	var out repo.Citizen
	err := s.store.Read(ctx, func(q Repository) error {
		c, err := q.GetCitizen(ctx, id, repo.LockNone)
		if err != nil {
			return notFound("cidadão", err)
		}
		if !c.Active {
			return apperr.NotFound("cidadão")
		}
		out = c
		return nil
	})
	return out, err
}

// GetStaff devolve um servidor ativo.
func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (repo.Staff, error) {
	var out repo.Staff
	err := s.store.Read(ctx, func(q Repository) error {
		st, err := q.GetStaff(ctx, id, repo.LockNone)
		if err != nil {
			return notFound("servidor", err)
		}
		if !st.Active {
			return apperr.NotFound("servidor")
		}
		out = st
		return nil
	})
	return out, err
}

// StaffFilter restringe a listagem de servidores ativos.
type StaffFilter struct {
	Kind       string
	Department string
}

// ListStaff lista servidores ativos.
func (s *Service) ListStaff(ctx context.Context, filter StaffFilter) ([]repo.Staff, error) {
	kind := strings.ToLower(strings.TrimSpace(filter.Kind))
	if kind != "" && kind != repo.StaffAdministrator && kind != repo.StaffTechnician {
		return nil, apperr.Validation("tipo de servidor inválido: %s", filter.Kind)
	}

	var out []repo.Staff
	err := s.store.Read(ctx, func(q Repository) error {
		staff, err := q.ListStaff(ctx, repo.StaffFilter{Kind: kind, Department: filter.Department, ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("listar servidores: %w", err)
		}
		out = staff
		return nil
	})
	if err == nil && out == nil {
		out = []repo.Staff{}
	}
	return out, err
}

// ProblemTypeInput associa um tipo de problema a um departamento.
type ProblemTypeInput struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// CreateProblemType cadastra um tipo de problema com nome único entre os ativos.
func (s *Service) CreateProblemType(ctx context.Context, a actor.Actor, in ProblemTypeInput) (repo.ProblemType, error) {
	if err := a.Validate(); err != nil {
		return repo.ProblemType{}, err
	}
	if err := util.RequireString(in.Name, "nome"); err != nil {
		return repo.ProblemType{}, err
	}
	if err := util.RequireString(in.Department, "departamento"); err != nil {
		return repo.ProblemType{}, err
	}

	var out repo.ProblemType
	err := s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}
		taken, err := q.ProblemTypeNameTaken(ctx, in.Name)
		if err != nil {
			return fmt.Errorf("verificar tipo de problema: %w", err)
		}
		if taken {
			return apperr.Conflict("tipo de problema", strings.TrimSpace(in.Name))
		}
		out, err = q.CreateProblemType(ctx, in.Name, in.Department, a.ID)
		return conflictOr(err, in.Name, "inserir tipo de problema")
	})
	return out, err
}

// ListProblemTypes lista os tipos de problema ativos.
func (s *Service) ListProblemTypes(ctx context.Context) ([]repo.ProblemType, error) {
	var out []repo.ProblemType
	err := s.store.Read(ctx, func(q Repository) error {
		types, err := q.ListProblemTypes(ctx)
		if err != nil {
			return fmt.Errorf("listar tipos de problema: %w", err)
		}
		out = types
		return nil
	})
	if err == nil && out == nil {
		out = []repo.ProblemType{}
	}
	return out, err
}
