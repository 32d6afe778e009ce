package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const problemTypeColumns = `id, name, department, active, created_at`

// CreateProblemType insere um tipo de problema ativo.
func (q *Queries) CreateProblemType(ctx context.Context, name, department string, createdBy uuid.UUID) (ProblemType, error) {
	const query = `
        INSERT INTO problem_types (name, department, created_by)
        VALUES ($1, $2, $3)
        RETURNING ` + problemTypeColumns

	row := q.db.QueryRow(ctx, query, strings.TrimSpace(name), strings.TrimSpace(department), createdBy)
	return scanProblemType(row)
}

// GetProblemType busca tipo de problema pelo id.
func (q *Queries) GetProblemType(ctx context.Context, id uuid.UUID, lock Lock) (ProblemType, error) {
	query := `SELECT ` + problemTypeColumns + ` FROM problem_types WHERE id = $1` + lock.clause()
	return scanProblemType(q.db.QueryRow(ctx, query, id))
}

// ListProblemTypes lista tipos de problema ativos.
func (q *Queries) ListProblemTypes(ctx context.Context) ([]ProblemType, error) {
	rows, err := q.db.Query(ctx, `SELECT `+problemTypeColumns+` FROM problem_types WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []ProblemType
	for rows.Next() {
		pt, err := scanProblemType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

// ProblemTypeNameTaken verifica nome entre tipos ativos.
func (q *Queries) ProblemTypeNameTaken(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM problem_types WHERE active AND lower(name) = lower($1))`

	var taken bool
	err := q.db.QueryRow(ctx, query, strings.TrimSpace(name)).Scan(&taken)
	return taken, err
}

// DeactivateProblemType desativa um tipo de problema.
func (q *Queries) DeactivateProblemType(ctx context.Context, id, actorID uuid.UUID) error {
	const query = `
        UPDATE problem_types
        SET active = FALSE, deactivated_by = $2, deactivated_at = now()
        WHERE id = $1 AND active`

	return expectOne(q.db.Exec(ctx, query, id, actorID))
}

func scanProblemType(row pgx.Row) (ProblemType, error) {
	var pt ProblemType
	if err := row.Scan(&pt.ID, &pt.Name, &pt.Department, &pt.Active, &pt.CreatedAt); err != nil {
		return ProblemType{}, mapErr(err)
	}
	return pt, nil
}
