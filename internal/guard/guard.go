package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// Entity identifica o cadastro alvo da desativação.
type Entity string

const (
	EntityZone        Entity = "zone"
	EntityCouncil     Entity = "council"
	EntityLeader      Entity = "leader"
	EntityStaff       Entity = "staff"
	EntityProblemType Entity = "problem_type"
	EntityCitizen     Entity = "citizen"
)

var entityLabels = map[Entity]string{
	EntityZone:        "zona",
	EntityCouncil:     "junta",
	EntityLeader:      "líder",
	EntityStaff:       "servidor",
	EntityProblemType: "tipo de problema",
	EntityCitizen:     "cidadão",
}

// ParseEntity aceita o nome da entidade no singular ou como segmento de rota.
func ParseEntity(raw string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "zone", "zones":
		return EntityZone, nil
	case "council", "councils":
		return EntityCouncil, nil
	case "leader", "leaders":
		return EntityLeader, nil
	case "staff":
		return EntityStaff, nil
	case "problem_type", "problem-types", "problem_types":
		return EntityProblemType, nil
	case "citizen", "citizens":
		return EntityCitizen, nil
	}
	return "", apperr.Validation("entidade desconhecida: %s", raw)
}

// Check é o resultado da verificação de vínculos.
type Check struct {
	Entity   Entity    `json:"entity"`
	ID       uuid.UUID `json:"id"`
	Allowed  bool      `json:"allowed"`
	Count    int       `json:"count"`
	Reports  int       `json:"open_reports"`
	Citizens int       `json:"active_citizens"`
}

// Err devolve Blocked com as contagens quando a desativação não é permitida.
func (c Check) Err() error {
	if c.Allowed {
		return nil
	}
	return apperr.Blocked(entityLabels[c.Entity], c.Count, map[string]any{
		"open_reports":    c.Reports,
		"active_citizens": c.Citizens,
	})
}

// Repository lista as consultas usadas pela verificação de vínculos.
type Repository interface {
	GetZone(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Zone, error)
	GetCouncil(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Council, error)
	GetLeader(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Leader, error)
	GetStaff(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Staff, error)
	GetProblemType(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.ProblemType, error)
	GetCitizen(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Citizen, error)

	CountOpenReportsByStaff(ctx context.Context, id uuid.UUID) (int, error)
	CountOpenReportsByLeader(ctx context.Context, id uuid.UUID) (int, error)
	CountOpenReportsByZone(ctx context.Context, id uuid.UUID) (int, error)
	CountOpenReportsBySubCouncil(ctx context.Context, id uuid.UUID) (int, error)
	CountOpenReportsByProblemType(ctx context.Context, id uuid.UUID) (int, error)
	CountActiveCitizensByZone(ctx context.Context, id uuid.UUID) (int, error)
	CountActiveCitizensBySubCouncil(ctx context.Context, id uuid.UUID) (int, error)

	DeactivateZone(ctx context.Context, id, actorID uuid.UUID) error
	DeactivateCouncilsByZone(ctx context.Context, zoneID, actorID uuid.UUID) (int64, error)
	DeactivateCouncil(ctx context.Context, id, actorID uuid.UUID) error
	DeactivateLeader(ctx context.Context, id, actorID uuid.UUID) error
	DeactivateStaff(ctx context.Context, id, actorID uuid.UUID) error
	DeactivateProblemType(ctx context.Context, id, actorID uuid.UUID) error
	DeactivateCitizen(ctx context.Context, id, actorID uuid.UUID) error
}

// Store executa funções com o repositório dentro ou fora de transação.
type Store interface {
	RunInTx(ctx context.Context, fn func(q Repository) error) error
	Read(ctx context.Context, fn func(q Repository) error) error
}

var _ Repository = (*repo.Queries)(nil)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore cria o Store sobre o pool do Postgres.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) RunInTx(ctx context.Context, fn func(q Repository) error) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(repo.New(tx))
	})
}

func (s *pgStore) Read(_ context.Context, fn func(q Repository) error) error {
	return fn(repo.New(s.pool))
}

// Service impede desativar entidades ainda referenciadas por relatos abertos.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewService cria o serviço; metrics pode ser nil.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: m,
		logger:  log.With().Str("component", "guard").Logger(),
	}
}

// CanDeactivate informa se a entidade pode ser desativada e quantos vínculos a impedem.
func (s *Service) CanDeactivate(ctx context.Context, entity Entity, id uuid.UUID) (Check, error) {
	var check Check
	err := s.store.Read(ctx, func(q Repository) error {
		c, err := inspect(ctx, q, entity, id, repo.LockNone)
		check = c
		return err
	})
	return check, err
}

// Deactivate desativa a entidade se nenhum relato aberto a referencia.
// A linha da entidade fica travada até o commit; zonas levam junto todas as juntas.
func (s *Service) Deactivate(ctx context.Context, a actor.Actor, entity Entity, id uuid.UUID) (check Check, err error) {
	defer func() { s.metrics.ObserveDeactivation(string(entity), metrics.Outcome(err)) }()

	if err := a.Validate(); err != nil {
		return Check{}, err
	}
	if _, ok := entityLabels[entity]; !ok {
		return Check{}, apperr.Validation("entidade desconhecida: %s", entity)
	}
	if entity == EntityStaff && id == a.ID {
		return Check{}, apperr.Validation("não é possível desativar o próprio cadastro")
	}

	var cascaded int64
	err = s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}

		c, err := inspect(ctx, q, entity, id, repo.LockUpdate)
		if err != nil {
			return err
		}
		check = c
		if err := c.Err(); err != nil {
			return err
		}

		switch entity {
		case EntityZone:
			if err := q.DeactivateZone(ctx, id, a.ID); err != nil {
				return notFound(entity, err)
			}
			cascaded, err = q.DeactivateCouncilsByZone(ctx, id, a.ID)
			if err != nil {
				return fmt.Errorf("desativar juntas da zona: %w", err)
			}
		case EntityCouncil:
			err = q.DeactivateCouncil(ctx, id, a.ID)
		case EntityLeader:
			err = q.DeactivateLeader(ctx, id, a.ID)
		case EntityStaff:
			err = q.DeactivateStaff(ctx, id, a.ID)
		case EntityProblemType:
			err = q.DeactivateProblemType(ctx, id, a.ID)
		case EntityCitizen:
			err = q.DeactivateCitizen(ctx, id, a.ID)
		}
		return notFound(entity, err)
	})
	if err != nil {
		return check, err
	}

	s.logger.Info().
		Str("entity", string(entity)).
		Str("id", id.String()).
		Str("actor", a.String()).
		Int64("cascaded_councils", cascaded).
		Msg("entidade desativada")
	return check, nil
}

func requireAdministrator(ctx context.Context, q Repository, a actor.Actor) error {
	if a.Kind != actor.KindStaff {
		return apperr.Forbidden("apenas administradores podem desativar cadastros")
	}
	st, err := q.GetStaff(ctx, a.ID, repo.LockShare)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.Forbidden("apenas administradores podem desativar cadastros")
		}
		return fmt.Errorf("carregar servidor: %w", err)
	}
	if !st.Active || st.Kind != repo.StaffAdministrator {
		return apperr.Forbidden("apenas administradores podem desativar cadastros")
	}
	return nil
}

// inspect carrega a entidade ativa com o bloqueio pedido e conta os vínculos.
func inspect(ctx context.Context, q Repository, entity Entity, id uuid.UUID, lock repo.Lock) (Check, error) {
	check := Check{Entity: entity, ID: id}

	var (
		active bool
		err    error
	)
	switch entity {
	case EntityZone:
		var z repo.Zone
		if z, err = q.GetZone(ctx, id, lock); err == nil {
			active = z.Active
			if active {
				if check.Reports, err = q.CountOpenReportsByZone(ctx, id); err == nil {
					check.Citizens, err = q.CountActiveCitizensByZone(ctx, id)
				}
			}
		}
	case EntityCouncil:
		var c repo.Council
		if c, err = q.GetCouncil(ctx, id, lock); err == nil {
			active = c.Active
			if active && c.IsPrincipal {
				return check, apperr.ValidationCode(apperr.CodePrincipalViaZone,
					"a junta principal é desativada junto com a zona")
			}
			if active {
				if check.Reports, err = q.CountOpenReportsBySubCouncil(ctx, id); err == nil {
					check.Citizens, err = q.CountActiveCitizensBySubCouncil(ctx, id)
				}
			}
		}
	case EntityLeader:
		var l repo.Leader
		if l, err = q.GetLeader(ctx, id, lock); err == nil {
			active = l.Active
			if active {
				check.Reports, err = q.CountOpenReportsByLeader(ctx, id)
			}
		}
	case EntityStaff:
		var st repo.Staff
		if st, err = q.GetStaff(ctx, id, lock); err == nil {
			active = st.Active
			if active {
				check.Reports, err = q.CountOpenReportsByStaff(ctx, id)
			}
		}
	case EntityProblemType:
		var pt repo.ProblemType
		if pt, err = q.GetProblemType(ctx, id, lock); err == nil {
			active = pt.Active
			if active {
				check.Reports, err = q.CountOpenReportsByProblemType(ctx, id)
			}
		}
	case EntityCitizen:
		var c repo.Citizen
		if c, err = q.GetCitizen(ctx, id, lock); err == nil {
			active = c.Active
		}
	default:
		return check, apperr.Validation("entidade desconhecida: %s", entity)
	}

	if err != nil {
		return check, notFound(entity, err)
	}
	if !active {
		return check, apperr.NotFound(entityLabels[entity])
	}

	// Count é o número de relatos abertos; cidadãos só entram quando são o único vínculo.
	check.Count = check.Reports
	if check.Count == 0 {
		check.Count = check.Citizens
	}
	check.Allowed = check.Reports == 0 && check.Citizens == 0
	return check, nil
}

func notFound(entity Entity, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(entityLabels[entity])
	}
	if err != nil {
		return fmt.Errorf("%s: %w", entityLabels[entity], err)
	}
	return nil
}
