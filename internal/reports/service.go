package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/events"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

// Service executa as intenções do ciclo de vida do relato.
type Service struct {
	store     Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configura o Service.
type Option func(*Service)

// WithPublisher define o destino dos eventos confirmados.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics habilita as métricas do fluxo.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger substitui o logger do componente.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock fixa o relógio usado para carimbar atribuições.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService cria o serviço de relatos.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: events.Noop{},
		logger:    log.With().Str("component", "reports").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get devolve um relato ativo.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repo.Report, error) {
	var report repo.Report
	err := s.store.Read(ctx, func(q Repository) error {
		r, err := loadActive(ctx, q, id)
		report = r
		return err
	})
	return report, err
}

// ListFilter restringe a listagem de relatos.
type ListFilter struct {
	ZoneID          *uuid.UUID
	State           string
	AssignedStaffID *uuid.UUID
	CreatorID       *uuid.UUID
	Limit           int
	Offset          int
}

// List lista relatos ativos conforme o filtro.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]repo.Report, error) {
	f := repo.ReportFilter{
		ZoneID:          filter.ZoneID,
		AssignedStaffID: filter.AssignedStaffID,
		CreatorID:       filter.CreatorID,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	}
	if filter.State != "" {
		st, err := lifecycle.ParseState(filter.State)
		if err != nil {
			return nil, err
		}
		f.State = &st
	}

	var out []repo.Report
	err := s.store.Read(ctx, func(q Repository) error {
		reports, err := q.ListReports(ctx, f)
		if err != nil {
			return fmt.Errorf("listar relatos: %w", err)
		}
		out = reports
		return nil
	})
	if out == nil {
		out = []repo.Report{}
	}
	return out, err
}

// History devolve o histórico de mudanças do relato.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]repo.ReportEvent, error) {
	var out []repo.ReportEvent
	err := s.store.Read(ctx, func(q Repository) error {
		if _, err := loadActive(ctx, q, id); err != nil {
			return err
		}
		evs, err := q.ListReportEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("listar histórico: %w", err)
		}
		out = evs
		return nil
	})
	if err == nil && out == nil {
		out = []repo.ReportEvent{}
	}
	return out, err
}

func loadActive(ctx context.Context, q Repository, id uuid.UUID) (repo.Report, error) {
	r, err := q.GetReport(ctx, id, repo.LockNone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Report{}, apperr.NotFound("relato")
		}
		return repo.Report{}, fmt.Errorf("carregar relato: %w", err)
	}
	if !r.Active {
		return repo.Report{}, apperr.NotFound("relato")
	}
	return r, nil
}

// committed é o que a transação deixa para ser publicado após o commit.
type committed struct {
	report repo.Report
	from   *lifecycle.State
	action lifecycle.Action
	actor  actor.Actor
}

func (s *Service) afterCommit(ctx context.Context, c committed) {
	ev := events.Event{
		ReportID:   c.report.ID,
		Number:     c.report.Number,
		ZoneID:     c.report.ZoneID,
		Action:     string(c.action),
		ToState:    string(c.report.State),
		ActorID:    c.actor.ID,
		ActorKind:  string(c.actor.Kind),
		StaffID:    c.report.AssignedStaffID,
		OccurredAt: c.report.UpdatedAt,
	}
	if c.from != nil {
		ev.FromState = string(*c.from)
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.IncEventPublishFailure()
		s.logger.Warn().Err(err).
			Str("report_id", c.report.ID.String()).
			Str("action", string(c.action)).
			Msg("falha ao publicar evento do relato")
	}
}

// storeErr traduz erros do repositório que escaparam das verificações do serviço.
func storeErr(err error, expected lifecycle.State) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrStale):
		return apperr.StaleState(string(expected))
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound("relato")
	}
	return err
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
