package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const councilColumns = `id, zone_id, is_principal, principal_id, name, sector, phone, email, address, active, created_at, updated_at`

// CreateCouncilParams contém campos de junta principal ou subjunta.
type CreateCouncilParams struct {
	ZoneID      uuid.UUID
	IsPrincipal bool
	PrincipalID *uuid.UUID
	Name        string
	Sector      *string
	Phone       *string
	Email       *string
	Address     *string
	CreatedBy   uuid.UUID
}

// CreateCouncil insere uma junta ativa.
func (q *Queries) CreateCouncil(ctx context.Context, arg CreateCouncilParams) (Council, error) {
	const query = `
        INSERT INTO councils (zone_id, is_principal, principal_id, name, sector, phone, email, address, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + councilColumns

	row := q.db.QueryRow(ctx, query,
		arg.ZoneID,
		arg.IsPrincipal,
		arg.PrincipalID,
		strings.TrimSpace(arg.Name),
		arg.Sector,
		arg.Phone,
		arg.Email,
		arg.Address,
		arg.CreatedBy,
	)
	return scanCouncil(row)
}

// GetCouncil busca junta pelo id.
func (q *Queries) GetCouncil(ctx context.Context, id uuid.UUID, lock Lock) (Council, error) {
	query := `SELECT ` + councilColumns + ` FROM councils WHERE id = $1` + lock.clause()
	return scanCouncil(q.db.QueryRow(ctx, query, id))
}

// GetPrincipalCouncil busca a junta principal ativa da zona.
func (q *Queries) GetPrincipalCouncil(ctx context.Context, zoneID uuid.UUID, lock Lock) (Council, error) {
	query := `SELECT ` + councilColumns + ` FROM councils WHERE zone_id = $1 AND is_principal AND active` + lock.clause()
	return scanCouncil(q.db.QueryRow(ctx, query, zoneID))
}

// ListCouncilsByZone lista a principal seguida das subjuntas da zona.
func (q *Queries) ListCouncilsByZone(ctx context.Context, zoneID uuid.UUID, includeInactive bool) ([]Council, error) {
	query := `SELECT ` + councilColumns + ` FROM councils WHERE zone_id = $1`
	if !includeInactive {
		query += ` AND active`
	}
	query += ` ORDER BY is_principal DESC, sector NULLS FIRST, name`

	rows, err := q.db.Query(ctx, query, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var councils []Council
	for rows.Next() {
		c, err := scanCouncil(rows)
		if err != nil {
			return nil, err
		}
		councils = append(councils, c)
	}
	return councils, rows.Err()
}

// SectorTaken verifica setor (sem diferenciar maiúsculas) entre subjuntas ativas da principal.
func (q *Queries) SectorTaken(ctx context.Context, principalID uuid.UUID, sector string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM councils
            WHERE active AND NOT is_principal AND principal_id = $1 AND lower(sector) = lower($2)
        )`

	var taken bool
	err := q.db.QueryRow(ctx, query, principalID, strings.TrimSpace(sector)).Scan(&taken)
	return taken, err
}

// UpdateCouncilParams contém os dados de contato editáveis.
type UpdateCouncilParams struct {
	ID      uuid.UUID
	Name    string
	Phone   *string
	Email   *string
	Address *string
}

// UpdateCouncil altera dados de uma junta ativa.
func (q *Queries) UpdateCouncil(ctx context.Context, arg UpdateCouncilParams) (Council, error) {
	const query = `
        UPDATE councils
        SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
        WHERE id = $1 AND active
        RETURNING ` + councilColumns

	row := q.db.QueryRow(ctx, query, arg.ID, strings.TrimSpace(arg.Name), arg.Phone, arg.Email, arg.Address)
	return scanCouncil(row)
}

// DeactivateCouncil desativa uma junta específica.
func (q *Queries) DeactivateCouncil(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE councils
        SET active = FALSE, deactivated_by = $2, deactivated_at = now(), updated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

// DeactivateCouncilsByZone desativa a principal e todas as subjuntas da zona.
func (q *Queries) DeactivateCouncilsByZone(ctx context.Context, zoneID, actorID uuid.UUID) (int64, error) {
	const query = `
        UPDATE councils
        SET active = FALSE, deactivated_by = $2, deactivated_at = now(), updated_at = now()
        WHERE zone_id = $1 AND active`

	tag, err := q.db.Exec(ctx, query, zoneID, actorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCouncil(row pgx.Row) (Council, error) {
	var c Council
	err := row.Scan(&c.ID, &c.ZoneID, &c.IsPrincipal, &c.PrincipalID, &c.Name, &c.Sector, &c.Phone, &c.Email, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Council{}, mapErr(err)
	}
	return c, nil
}
