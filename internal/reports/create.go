package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)

// CreateInput contém os dados informados na abertura do relato.
type CreateInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Priority      string    `json:"priority"`
	ZoneID        uuid.UUID `json:"zone_id"`
	ProblemTypeID uuid.UUID `json:"problem_type_id"`
}

func (in CreateInput) validate() (lifecycle.Priority, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return "", apperr.Validation("título obrigatório")
	case len([]rune(title)) > maxTitleLength:
		return "", apperr.Validation("título excede %d caracteres", maxTitleLength)
	case strings.TrimSpace(in.Description) == "":
		return "", apperr.Validation("descrição obrigatória")
	case len([]rune(in.Description)) > maxDescriptionLength:
		return "", apperr.Validation("descrição excede %d caracteres", maxDescriptionLength)
	case strings.TrimSpace(in.Address) == "":
		return "", apperr.Validation("endereço obrigatório")
	case in.ZoneID == uuid.Nil:
		return "", apperr.Validation("zona obrigatória")
	case in.ProblemTypeID == uuid.Nil:
		return "", apperr.Validation("tipo de problema obrigatório")
	}
	return lifecycle.ParsePriority(in.Priority)
}

// Create abre um relato em estado new. O criador é o ator e não muda depois.
// Zona, tipo de problema e criador são lidos em modo compartilhado até o commit.
func (s *Service) Create(ctx context.Context, a actor.Actor, in CreateInput) (repo.Report, error) {
	if err := a.Validate(); err != nil {
		return repo.Report{}, err
	}
	if a.Kind != actor.KindLeader && a.Kind != actor.KindCitizen {
		return repo.Report{}, apperr.Validation("relatos são abertos por líderes ou cidadãos")
	}
	priority, err := in.validate()
	if err != nil {
		return repo.Report{}, err
	}

	var done committed
	err = s.store.RunInTx(ctx, func(q Repository) error {
		zone, err := q.GetZone(ctx, in.ZoneID, repo.LockShare)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("carregar zona: %w", err)
		}
		if err != nil || !zone.Active {
			return apperr.Validation("zona inexistente ou inativa")
		}

		pt, err := q.GetProblemType(ctx, in.ProblemTypeID, repo.LockShare)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("carregar tipo de problema: %w", err)
		}
		if err != nil || !pt.Active {
			return apperr.Validation("tipo de problema inexistente ou inativo")
		}

		params := repo.CreateReportParams{
			Title:         in.Title,
			Description:   in.Description,
			Address:       in.Address,
			Priority:      priority,
			ZoneID:        zone.ID,
			ProblemTypeID: pt.ID,
		}

		switch a.Kind {
		case actor.KindLeader:
			l, err := q.GetLeader(ctx, a.ID, repo.LockShare)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("carregar líder: %w", err)
			}
			if err != nil || !l.Active {
				return apperr.Validation("líder inexistente ou inativo")
			}
			if l.ZoneID != zone.ID {
				return apperr.Validation("líder só abre relatos na própria zona")
			}
			params.CreatorKind = repo.CreatorLeader
			params.CreatorLeaderID = &l.ID
		case actor.KindCitizen:
			c, err := q.GetCitizen(ctx, a.ID, repo.LockShare)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("carregar cidadão: %w", err)
			}
			if err != nil || !c.Active {
				return apperr.Validation("cidadão inexistente ou inativo")
			}
			params.CreatorKind = repo.CreatorCitizen
			params.CreatorCitizenID = &c.ID
		}

		r, err := q.CreateReport(ctx, params)
		if err != nil {
			return fmt.Errorf("inserir relato: %w", err)
		}

		if _, err := q.InsertReportEvent(ctx, repo.InsertReportEventParams{
			ReportID:  r.ID,
			Action:    lifecycle.ActionCreate,
			ToState:   r.State,
			ActorID:   a.ID,
			ActorKind: string(a.Kind),
			Priority:  optional(string(r.Priority)),
		}); err != nil {
			return fmt.Errorf("registrar histórico: %w", err)
		}

		done = committed{report: r, action: lifecycle.ActionCreate, actor: a}
		return nil
	})
	if err != nil {
		return repo.Report{}, err
	}

	s.metrics.IncReportsCreated()
	s.afterCommit(ctx, done)
	return done.report, nil
}
