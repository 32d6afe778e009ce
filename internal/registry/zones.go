package registry

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/repo"
	"github.com/gestaozabele/zeladoria/internal/util"
)

// CouncilInput contém nome e contatos de uma junta.
type CouncilInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (in CouncilInput) validate() error {
	if err := util.RequireString(in.Name, "nome da junta"); err != nil {
		return err
	}
	if strings.TrimSpace(in.Email) != "" {
		if err := util.ValidateEmail(in.Email); err != nil {
			return err
		}
	}
	return nil
}

// ZoneInput contém os dados da zona e da junta principal.
// Na atualização, Council nil mantém a junta principal como está.
type ZoneInput struct {
	Name       string        `json:"name"`
	Number     int           `json:"number"`
	Population int           `json:"population"`
	AreaKm2    float64       `json:"area_km2"`
	Council    *CouncilInput `json:"council"`
}

func (in ZoneInput) validate(requireCouncil bool) error {
	if err := util.RequireString(in.Name, "nome da zona"); err != nil {
		return err
	}
	if in.Number <= 0 {
		return apperr.Validation("número da zona deve ser positivo")
	}
	if in.Population < 0 {
		return apperr.Validation("população não pode ser negativa")
	}
	if in.AreaKm2 < 0 || math.IsNaN(in.AreaKm2) || math.IsInf(in.AreaKm2, 0) {
		return apperr.Validation("área inválida")
	}
	if in.Council == nil {
		if requireCouncil {
			return apperr.Validation("dados da junta principal obrigatórios")
		}
		return nil
	}
	return in.Council.validate()
}

// ZoneDetail é a zona com suas juntas ativas.
type ZoneDetail struct {
	repo.Zone
	Principal   *repo.Council  `json:"principal_council,omitempty"`
	SubCouncils []repo.Council `json:"sub_councils"`
}

// CreateZone cria a zona e sua junta principal na mesma transação.
func (s *Service) CreateZone(ctx context.Context, a actor.Actor, in ZoneInput) (ZoneDetail, error) {
	if err := a.Validate(); err != nil {
		return ZoneDetail{}, err
	}
	if err := in.validate(true); err != nil {
		return ZoneDetail{}, err
	}

	var out ZoneDetail
	err := s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}
		if err := checkZoneUnique(ctx, q, in, nil); err != nil {
			return err
		}

		z, err := q.CreateZone(ctx, repo.CreateZoneParams{
			Name:       in.Name,
			Number:     in.Number,
			Population: in.Population,
			AreaKm2:    in.AreaKm2,
			CreatedBy:  a.ID,
		})
		if err != nil {
			return conflictOr(err, in.Name, "inserir zona")
		}

		c, err := q.CreateCouncil(ctx, repo.CreateCouncilParams{
			ZoneID:      z.ID,
			IsPrincipal: true,
			Name:        in.Council.Name,
			Phone:       util.OptionalString(in.Council.Phone),
			Email:       util.OptionalString(in.Council.Email),
			Address:     util.OptionalString(in.Council.Address),
			CreatedBy:   a.ID,
		})
		if err != nil {
			return conflictOr(err, in.Council.Name, "inserir junta principal")
		}

		out = ZoneDetail{Zone: z, Principal: &c, SubCouncils: []repo.Council{}}
		return nil
	})
	if err != nil {
		return ZoneDetail{}, err
	}

	s.logger.Info().Str("zone_id", out.ID.String()).Int("number", out.Number).Msg("zona criada")
	return out, nil
}

// UpdateZone altera a zona e, quando informados, os dados da junta principal.
func (s *Service) UpdateZone(ctx context.Context, a actor.Actor, id uuid.UUID, in ZoneInput) (ZoneDetail, error) {
	if err := a.Validate(); err != nil {
		return ZoneDetail{}, err
	}
	if err := in.validate(false); err != nil {
		return ZoneDetail{}, err
	}

	var out ZoneDetail
	err := s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}

		current, err := q.GetZone(ctx, id, repo.LockUpdate)
		if err != nil {
			return notFound("zona", err)
		}
		if !current.Active {
			return apperr.NotFound("zona")
		}
		if err := checkZoneUnique(ctx, q, in, &id); err != nil {
			return err
		}

		z, err := q.UpdateZone(ctx, repo.UpdateZoneParams{
			ID:         id,
			Name:       in.Name,
			Number:     in.Number,
			Population: in.Population,
			AreaKm2:    in.AreaKm2,
			UpdatedBy:  a.ID,
		})
		if err != nil {
			return conflictOr(err, in.Name, "atualizar zona")
		}

		if in.Council != nil {
			principal, err := q.GetPrincipalCouncil(ctx, id, repo.LockUpdate)
			if err != nil {
				return notFound("junta principal", err)
			}
			if _, err := q.UpdateCouncil(ctx, repo.UpdateCouncilParams{
				ID:      principal.ID,
				Name:    in.Council.Name,
				Phone:   util.OptionalString(in.Council.Phone),
				Email:   util.OptionalString(in.Council.Email),
				Address: util.OptionalString(in.Council.Address),
			}); err != nil {
				return conflictOr(err, in.Council.Name, "atualizar junta principal")
			}
		}

		out, err = zoneDetail(ctx, q, z)
		return err
	})
	return out, err
}

func checkZoneUnique(ctx context.Context, q Repository, in ZoneInput, exclude *uuid.UUID) error {
	taken, err := q.ZoneNameTaken(ctx, in.Name, exclude)
	if err != nil {
		return fmt.Errorf("verificar nome da zona: %w", err)
	}
	if taken {
		return apperr.Conflict("nome da zona", strings.TrimSpace(in.Name))
	}
	taken, err = q.ZoneNumberTaken(ctx, in.Number, exclude)
	if err != nil {
		return fmt.Errorf("verificar número da zona: %w", err)
	}
	if taken {
		return apperr.Conflict("número da zona", strconv.Itoa(in.Number))
	}
	return nil
}

// SubCouncilInput contém os dados de uma subjunta.
type SubCouncilInput struct {
	CouncilInput
	Sector string `json:"sector"`
}

// CreateSubCouncil cria uma subjunta ligada à junta principal ativa da zona.
func (s *Service) CreateSubCouncil(ctx context.Context, a actor.Actor, zoneID uuid.UUID, in SubCouncilInput) (repo.Council, error) {
	if err := a.Validate(); err != nil {
		return repo.Council{}, err
	}
	if err := in.CouncilInput.validate(); err != nil {
		return repo.Council{}, err
	}
	if err := util.RequireString(in.Sector, "setor"); err != nil {
		return repo.Council{}, err
	}

	var out repo.Council
	err := s.store.RunInTx(ctx, func(q Repository) error {
		if err := requireAdministrator(ctx, q, a); err != nil {
			return err
		}

		z, err := q.GetZone(ctx, zoneID, repo.LockShare)
		if err != nil {
			return notFound("zona", err)
		}
		if !z.Active {
			return apperr.NotFound("zona")
		}
		principal, err := q.GetPrincipalCouncil(ctx, zoneID, repo.LockShare)
		if err != nil {
			return notFound("junta principal", err)
		}

		taken, err := q.SectorTaken(ctx, principal.ID, in.Sector)
		if err != nil {
			return fmt.Errorf("verificar setor: %w", err)
		}
		if taken {
			return apperr.Conflict("setor", strings.TrimSpace(in.Sector))
		}

		sector := strings.TrimSpace(in.Sector)
		out, err = q.CreateCouncil(ctx, repo.CreateCouncilParams{
			ZoneID:      zoneID,
			PrincipalID: &principal.ID,
			Name:        in.Name,
			Sector:      &sector,
			Phone:       util.OptionalString(in.Phone),
			Email:       util.OptionalString(in.Email),
			Address:     util.OptionalString(in.Address),
			CreatedBy:   a.ID,
		})
		return conflictOr(err, sector, "inserir subjunta")
	})
	return out, err
}

// GetZone devolve a zona com suas juntas ativas.
func (s *Service) GetZone(ctx context.Context, id uuid.UUID) (ZoneDetail, error) {
	var out ZoneDetail
	err := s.store.Read(ctx, func(q Repository) error {
		z, err := q.GetZone(ctx, id, repo.LockNone)
		if err != nil {
			return notFound("zona", err)
		}
		if !z.Active {
			return apperr.NotFound("zona")
		}
		out, err = zoneDetail(ctx, q, z)
		return err
	})
	return out, err
}

func zoneDetail(ctx context.Context, q Repository, z repo.Zone) (ZoneDetail, error) {
	councils, err := q.ListCouncilsByZone(ctx, z.ID, false)
	if err != nil {
		return ZoneDetail{}, fmt.Errorf("listar juntas: %w", err)
	}
	out := ZoneDetail{Zone: z, SubCouncils: []repo.Council{}}
	for i := range councils {
		if councils[i].IsPrincipal {
			c := councils[i]
			out.Principal = &c
			continue
		}
		out.SubCouncils = append(out.SubCouncils, councils[i])
	}
	return out, nil
}

// ListZones lista as zonas ativas.
func (s *Service) ListZones(ctx context.Context) ([]repo.Zone, error) {
	var out []repo.Zone
	err := s.store.Read(ctx, func(q Repository) error {
		zones, err := q.ListZones(ctx, false)
		if err != nil {
			return fmt.Errorf("listar zonas: %w", err)
		}
		out = zones
		return nil
	})
	if err == nil && out == nil {
		out = []repo.Zone{}
	}
	return out, err
}

// ListCouncils lista as juntas ativas da zona.
func (s *Service) ListCouncils(ctx context.Context, zoneID uuid.UUID) ([]repo.Council, error) {
	var out []repo.Council
	err := s.store.Read(ctx, func(q Repository) error {
		if _, err := q.GetZone(ctx, zoneID, repo.LockNone); err != nil {
			return notFound("zona", err)
		}
		councils, err := q.ListCouncilsByZone(ctx, zoneID, false)
		if err != nil {
			return fmt.Errorf("listar juntas: %w", err)
		}
		out = councils
		return nil
	})
	if err == nil && out == nil {
		out = []repo.Council{}
	}
	return out, err
}
