package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const zoneColumns = `id, name, number, population, area_km2, active, created_at, updated_at, deactivated_by, deactivated_at`

// CreateZoneParams contém os campos de inserção de zona.
type CreateZoneParams struct {
	Name       string
	Number     int
	Population int
	AreaKm2    float64
	CreatedBy  uuid.UUID
}

// CreateZone insere uma zona ativa.
func (q *Queries) CreateZone(ctx context.Context, arg CreateZoneParams) (Zone, error) {
	const query = `
        INSERT INTO zones (name, number, population, area_km2, created_by)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + zoneColumns

	row := q.db.QueryRow(ctx, query, strings.TrimSpace(arg.Name), arg.Number, arg.Population, arg.AreaKm2, arg.CreatedBy)
	return scanZone(row)
}

// GetZone busca zona pelo id, ativa ou não.
func (q *Queries) GetZone(ctx context.Context, id uuid.UUID, lock Lock) (Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE id = $1` + lock.clause()
	return scanZone(q.db.QueryRow(ctx, query, id))
}

// ListZones lista zonas ordenadas pelo número.
func (q *Queries) ListZones(ctx context.Context, includeInactive bool) ([]Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY number, name`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ZoneNameTaken verifica nome (sem diferenciar maiúsculas) entre zonas ativas.
func (q *Queries) ZoneNameTaken(ctx context.Context, name string, exclude *uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM zones
            WHERE active AND lower(name) = lower($1) AND ($2::uuid IS NULL OR id <> $2)
        )`

	var taken bool
	err := q.db.QueryRow(ctx, query, strings.TrimSpace(name), exclude).Scan(&taken)
	return taken, err
}

// ZoneNumberTaken verifica número entre zonas ativas.
func (q *Queries) ZoneNumberTaken(ctx context.Context, number int, exclude *uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM zones
            WHERE active AND number = $1 AND ($2::uuid IS NULL OR id <> $2)
        )`

	var taken bool
	err := q.db.QueryRow(ctx, query, number, exclude).Scan(&taken)
	return taken, err
}

// UpdateZoneParams contém os campos editáveis da zona.
type UpdateZoneParams struct {
	ID         uuid.UUID
	Name       string
	Number     int
	Population int
	AreaKm2    float64
	UpdatedBy  uuid.UUID
}

// UpdateZone altera uma zona ativa.
func (q *Queries) UpdateZone(ctx context.Context, arg UpdateZoneParams) (Zone, error) {
	const query = `
        UPDATE zones
        SET name = $2, number = $3, population = $4, area_km2 = $5, updated_by = $6, updated_at = now()
        WHERE id = $1 AND active
        RETURNING ` + zoneColumns

	row := q.db.QueryRow(ctx, query, arg.ID, strings.TrimSpace(arg.Name), arg.Number, arg.Population, arg.AreaKm2, arg.UpdatedBy)
	return scanZone(row)
}

// DeactivateZone limpa a flag ativa e carimba ator e horário.
func (q *Queries) DeactivateZone(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE zones
        SET active = FALSE, deactivated_by = $2, deactivated_at = now(), updated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

func scanZone(row pgx.Row) (Zone, error) {
	var z Zone
	err := row.Scan(&z.ID, &z.Name, &z.Number, &z.Population, &z.AreaKm2, &z.Active, &z.CreatedAt, &z.UpdatedAt, &z.DeactivatedBy, &z.DeactivatedAt)
	if err != nil {
		return Zone{}, mapErr(err)
	}
	return z, nil
}
