package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// Repository lista as consultas usadas pelos cadastros.
type Repository interface {
	CreateZone(ctx context.Context, arg repo.CreateZoneParams) (repo.Zone, error)
	GetZone(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Zone, error)
	ListZones(ctx context.Context, includeInactive bool) ([]repo.Zone, error)
	ZoneNameTaken(ctx context.Context, name string, exclude *uuid.UUID) (bool, error)
	ZoneNumberTaken(ctx context.Context, number int, exclude *uuid.UUID) (bool, error)
	UpdateZone(ctx context.Context, arg repo.UpdateZoneParams) (repo.Zone, error)

	CreateCouncil(ctx context.Context, arg repo.CreateCouncilParams) (repo.Council, error)
	GetCouncil(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Council, error)
	GetPrincipalCouncil(ctx context.Context, zoneID uuid.UUID, lock repo.Lock) (repo.Council, error)
	ListCouncilsByZone(ctx context.Context, zoneID uuid.UUID, includeInactive bool) ([]repo.Council, error)
	SectorTaken(ctx context.Context, principalID uuid.UUID, sector string) (bool, error)
	UpdateCouncil(ctx context.Context, arg repo.UpdateCouncilParams) (repo.Council, error)

	EmailTaken(ctx context.Context, table repo.AccountTable, email string) (bool, error)
	CreateLeader(ctx context.Context, arg repo.CreateLeaderParams) (repo.Leader, error)
	GetLeader(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Leader, error)
	ListLeadersByCouncil(ctx context.Context, councilID uuid.UUID) ([]repo.Leader, error)
	CreateCitizen(ctx context.Context, arg repo.CreateCitizenParams) (repo.Citizen, error)
	GetCitizen(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Citizen, error)
	CreateStaff(ctx context.Context, arg repo.CreateStaffParams) (repo.Staff, error)
	GetStaff(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Staff, error)
	ListStaff(ctx context.Context, filter repo.StaffFilter) ([]repo.Staff, error)

	CreateProblemType(ctx context.Context, name, department string, createdBy uuid.UUID) (repo.ProblemType, error)
	ListProblemTypes(ctx context.Context) ([]repo.ProblemType, error)
	ProblemTypeNameTaken(ctx context.Context, name string) (bool, error)
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

// Hasher gera o hash armazenado para uma senha.
type Hasher func(password string) (string, error)

// Service mantém zonas, juntas, contas e tipos de problema.
type Service struct {
	store  Store
	hash   Hasher
	logger zerolog.Logger
}

// Option configura o Service.
type Option func(*Service)

var defaultHasher, _ = auth.NewPasswordHasher(auth.DefaultPasswordParams)

// WithHasher substitui o hash de senha (argon2id por padrão).
func WithHasher(h Hasher) Option {
	return func(s *Service) { s.hash = h }
}

// NewService cria o serviço de cadastros.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hash:   defaultHasher.Hash,
		logger: log.With().Str("component", "registry").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireAdministrator exige servidor administrador ativo.
func requireAdministrator(ctx context.Context, q Repository, a actor.Actor) error {
	if err := a.Validate(); err != nil {
		return err
	}
	deny := apperr.Forbidden("apenas administradores podem alterar cadastros")
	if a.Kind != actor.KindStaff {
		return deny
	}
	st, err := q.GetStaff(ctx, a.ID, repo.LockShare)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return deny
		}
		return fmt.Errorf("carregar servidor: %w", err)
	}
	if !st.Active || st.Kind != repo.StaffAdministrator {
		return deny
	}
	return nil
}

var constraintFields = map[string]string{
	"zones_active_name_uq":         "nome da zona",
	"zones_active_number_uq":       "número da zona",
	"councils_one_principal_uq":    "junta principal",
	"councils_active_sector_uq":    "setor",
	"leaders_active_email_uq":      "email",
	"citizens_active_email_uq":     "email",
	"staff_active_email_uq":        "email",
	"problem_types_active_name_uq": "tipo de problema",
}

// conflictOr converte violação de índice único em Conflict; demais erros são embrulhados.
func conflictOr(err error, value, op string) error {
	if err == nil {
		return nil
	}
	if constraint, ok := repo.UniqueConstraint(err); ok {
		field := constraintFields[constraint]
		if field == "" {
			field = constraint
		}
		return apperr.Conflict(field, value)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(entity string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return fmt.Errorf("carregar %s: %w", entity, err)
}
