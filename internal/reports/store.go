package reports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/zeladoria/internal/db"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// Repository lista as consultas que o fluxo de relatos usa.
type Repository interface {
	CreateReport(ctx context.Context, arg repo.CreateReportParams) (repo.Report, error)
	GetReport(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Report, error)
	ListReports(ctx context.Context, filter repo.ReportFilter) ([]repo.Report, error)
	UpdateReportState(ctx context.Context, arg repo.UpdateReportStateParams) (repo.Report, error)
	AssignReport(ctx context.Context, arg repo.AssignReportParams) (repo.Report, error)
	UpdateReportPriority(ctx context.Context, id uuid.UUID, priority lifecycle.Priority, actorID uuid.UUID, actorKind string) (repo.Report, error)
	InsertReportEvent(ctx context.Context, arg repo.InsertReportEventParams) (repo.ReportEvent, error)
	ListReportEvents(ctx context.Context, reportID uuid.UUID) ([]repo.ReportEvent, error)

	GetZone(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Zone, error)
	GetProblemType(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.ProblemType, error)
	GetLeader(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Leader, error)
	GetCitizen(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Citizen, error)
	GetStaff(ctx context.Context, id uuid.UUID, lock repo.Lock) (repo.Staff, error)
	ListStaff(ctx context.Context, filter repo.StaffFilter) ([]repo.Staff, error)
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
