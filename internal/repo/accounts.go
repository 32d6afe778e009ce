package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Lider, cidadão e servidor têm unicidade de e-mail verificada de forma independente.

const leaderSelect = `
        SELECT l.id, l.name, l.email, l.password_hash, l.kind, l.principal_council_id, l.sub_council_id, c.zone_id, l.active, l.created_at
        FROM leaders l
        JOIN councils c ON c.id = coalesce(l.principal_council_id, l.sub_council_id)`

// CreateLeaderParams contém campos do líder.
type CreateLeaderParams struct {
	Name               string
	Email              string
	PasswordHash       string
	Kind               string
	PrincipalCouncilID *uuid.UUID
	SubCouncilID       *uuid.UUID
	CreatedBy          uuid.UUID
}

// CreateLeader insere um líder e devolve com a zona resolvida.
func (q *Queries) CreateLeader(ctx context.Context, arg CreateLeaderParams) (Leader, error) {
	const query = `
        INSERT INTO leaders (name, email, password_hash, kind, principal_council_id, sub_council_id, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	var id uuid.UUID
	err := q.db.QueryRow(ctx, query,
		strings.TrimSpace(arg.Name),
		strings.ToLower(strings.TrimSpace(arg.Email)),
		arg.PasswordHash,
		arg.Kind,
		arg.PrincipalCouncilID,
		arg.SubCouncilID,
		arg.CreatedBy,
	).Scan(&id)
	if err != nil {
		return Leader{}, mapErr(err)
	}
	return q.GetLeader(ctx, id, LockNone)
}

// GetLeader busca líder pelo id.
func (q *Queries) GetLeader(ctx context.Context, id uuid.UUID, lock Lock) (Leader, error) {
	query := leaderSelect + ` WHERE l.id = $1` + lock.of("l")
	return scanLeader(q.db.QueryRow(ctx, query, id))
}

// ListLeadersByCouncil lista líderes ativos de uma junta.
func (q *Queries) ListLeadersByCouncil(ctx context.Context, councilID uuid.UUID) ([]Leader, error) {
	query := leaderSelect + ` WHERE l.active AND (l.principal_council_id = $1 OR l.sub_council_id = $1) ORDER BY l.name`

	rows, err := q.db.Query(ctx, query, councilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaders []Leader
	for rows.Next() {
		l, err := scanLeader(rows)
		if err != nil {
			return nil, err
		}
		leaders = append(leaders, l)
	}
	return leaders, rows.Err()
}

// DeactivateLeader desativa um líder.
func (q *Queries) DeactivateLeader(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE leaders
        SET active = FALSE, deactivated_by = $2, deactivated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

// CreateCitizenParams contém campos do cidadão.
type CreateCitizenParams struct {
	Name                string
	Email               string
	PasswordHash        string
	ZoneID              *uuid.UUID
	NearestSubCouncilID *uuid.UUID
}

// CreateCitizen insere um cidadão ativo.
func (q *Queries) CreateCitizen(ctx context.Context, arg CreateCitizenParams) (Citizen, error) {
	const query = `
        INSERT INTO citizens (name, email, password_hash, zone_id, nearest_sub_council_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, email, password_hash, zone_id, nearest_sub_council_id, active, created_at`

	row := q.db.QueryRow(ctx, query,
		strings.TrimSpace(arg.Name),
		strings.ToLower(strings.TrimSpace(arg.Email)),
		arg.PasswordHash,
		arg.ZoneID,
		arg.NearestSubCouncilID,
	)
	return scanCitizen(row)
}

// GetCitizen busca cidadão pelo id.
func (q *Queries) GetCitizen(ctx context.Context, id uuid.UUID, lock Lock) (Citizen, error) {
	query := `
        SELECT id, name, email, password_hash, zone_id, nearest_sub_council_id, active, created_at
        FROM citizens WHERE id = $1` + lock.clause()
	return scanCitizen(q.db.QueryRow(ctx, query, id))
}

// DeactivateCitizen desativa um cidadão.
func (q *Queries) DeactivateCitizen(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE citizens
        SET active = FALSE, deactivated_by = $2, deactivated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

const staffColumns = `id, name, email, password_hash, kind, department, can_assign, active, created_at`

// CreateStaffParams contém campos do servidor.
type CreateStaffParams struct {
	Name         string
	Email        string
	PasswordHash string
	Kind         string
	Department   *string
	CanAssign    bool
	CreatedBy    *uuid.UUID
}

// CreateStaff insere um servidor ativo.
func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	const query = `
        INSERT INTO staff (name, email, password_hash, kind, department, can_assign, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + staffColumns

	row := q.db.QueryRow(ctx, query,
		strings.TrimSpace(arg.Name),
		strings.ToLower(strings.TrimSpace(arg.Email)),
		arg.PasswordHash,
		arg.Kind,
		arg.Department,
		arg.CanAssign,
		arg.CreatedBy,
	)
	return scanStaff(row)
}

// GetStaff busca servidor pelo id.
func (q *Queries) GetStaff(ctx context.Context, id uuid.UUID, lock Lock) (Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1` + lock.clause()
	return scanStaff(q.db.QueryRow(ctx, query, id))
}

// StaffFilter filtra a listagem de servidores.
type StaffFilter struct {
	Kind       string
	Department string
	ActiveOnly bool
}

// ListStaff lista servidores aplicando filtros simples.
func (q *Queries) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.ActiveOnly {
		clauses = append(clauses, "active")
	}
	if filter.Kind != "" {
		clauses = append(clauses, fmt.Sprintf("kind = $%d", idx))
		args = append(args, filter.Kind)
		idx++
	}
	if filter.Department != "" {
		clauses = append(clauses, fmt.Sprintf("lower(btrim(department)) = lower(btrim($%d))", idx))
		args = append(args, filter.Department)
	}

	query := `SELECT ` + staffColumns + ` FROM staff`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

// DeactivateStaff desativa um servidor.
func (q *Queries) DeactivateStaff(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE staff
        SET active = FALSE, deactivated_by = $2, deactivated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

// AccountTable identifica o cadastro cuja unicidade de e-mail é verificada.
type AccountTable string

const (
	AccountLeaders  AccountTable = "leaders"
	AccountCitizens AccountTable = "citizens"
	AccountStaff    AccountTable = "staff"
)

// EmailTaken verifica e-mail entre contas ativas do mesmo cadastro.
func (q *Queries) EmailTaken(ctx context.Context, table AccountTable, email string) (bool, error) {
	switch table {
	case AccountLeaders, AccountCitizens, AccountStaff:
	default:
		return false, fmt.Errorf("cadastro desconhecido: %s", table)
	}

	query := `SELECT EXISTS (SELECT 1 FROM ` + string(table) + ` WHERE active AND lower(email) = lower($1))`

	var taken bool
	err := q.db.QueryRow(ctx, query, strings.TrimSpace(email)).Scan(&taken)
	return taken, err
}

func scanLeader(row pgx.Row) (Leader, error) {
	var l Leader
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.PasswordHash, &l.Kind, &l.PrincipalCouncilID, &l.SubCouncilID, &l.ZoneID, &l.Active, &l.CreatedAt)
	if err != nil {
		return Leader{}, mapErr(err)
	}
	return l, nil
}

func scanCitizen(row pgx.Row) (Citizen, error) {
	var c Citizen
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.ZoneID, &c.NearestSubCouncilID, &c.Active, &c.CreatedAt)
	if err != nil {
		return Citizen{}, mapErr(err)
	}
	return c, nil
}

func scanStaff(row pgx.Row) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Kind, &s.Department, &s.CanAssign, &s.Active, &s.CreatedAt)
	if err != nil {
		return Staff{}, mapErr(err)
	}
	return s, nil
}
