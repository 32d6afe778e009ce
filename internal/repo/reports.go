package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaozabele/zeladoria/internal/lifecycle"
)

const reportColumns = `id, number, title, description, address, priority, zone_id, problem_type_id,
        creator_kind, creator_leader_id, creator_citizen_id, coordinator_leader_id, state,
        assigned_staff_id, assigned_at, assigned_by, active, created_at, updated_at, updated_by, updated_by_kind`

// CreateReportParams contém os campos de abertura do relato.
type CreateReportParams struct {
	Title            string
	Description      string
	Address          string
	Priority         lifecycle.Priority
	ZoneID           uuid.UUID
	ProblemTypeID    uuid.UUID
	CreatorKind      string
	CreatorLeaderID  *uuid.UUID
	CreatorCitizenID *uuid.UUID
}

// CreateReport insere o relato em estado new com número sequencial do ano.
func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (Report, error) {
	const query = `
        INSERT INTO reports (
            number, title, description, address, priority, zone_id, problem_type_id,
            creator_kind, creator_leader_id, creator_citizen_id, state, updated_by, updated_by_kind
        )
        VALUES (
            'R-' || to_char(now(), 'YYYY') || '-' || lpad(nextval('report_number_seq')::text, 6, '0'),
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $7
        )
        RETURNING ` + reportColumns

	row := q.db.QueryRow(ctx, query,
		strings.TrimSpace(arg.Title),
		strings.TrimSpace(arg.Description),
		strings.TrimSpace(arg.Address),
		arg.Priority,
		arg.ZoneID,
		arg.ProblemTypeID,
		arg.CreatorKind,
		arg.CreatorLeaderID,
		arg.CreatorCitizenID,
		lifecycle.StateNew,
		arg.creatorID(),
	)
	return scanReport(row)
}

// creatorID é o autor do relato, líder ou cidadão, gravado em updated_by.
func (arg CreateReportParams) creatorID() *uuid.UUID {
	if arg.CreatorLeaderID != nil {
		return arg.CreatorLeaderID
	}
	return arg.CreatorCitizenID
}

// GetReport busca relato pelo id, ativo ou não.
func (q *Queries) GetReport(ctx context.Context, id uuid.UUID, lock Lock) (Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1` + lock.clause()
	return scanReport(q.db.QueryRow(ctx, query, id))
}

// ReportFilter restringe a listagem de relatos.
type ReportFilter struct {
	ZoneID          *uuid.UUID
	State           *lifecycle.State
	AssignedStaffID *uuid.UUID
	CreatorID       *uuid.UUID
	Limit           int
	Offset          int
}

// ListReports lista relatos ativos do mais recente para o mais antigo.
func (q *Queries) ListReports(ctx context.Context, filter ReportFilter) ([]Report, error) {
	clauses := []string{"active"}
	var args []any

	add := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if filter.ZoneID != nil {
		add("zone_id = $%d", *filter.ZoneID)
	}
	if filter.State != nil {
		add("state = $%d", *filter.State)
	}
	if filter.AssignedStaffID != nil {
		add("assigned_staff_id = $%d", *filter.AssignedStaffID)
	}
	if filter.CreatorID != nil {
		add("coalesce(creator_leader_id, creator_citizen_id) = $%d", *filter.CreatorID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM reports WHERE %s ORDER BY created_at DESC, number DESC LIMIT $%d OFFSET $%d`,
		reportColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// UpdateReportStateParams descreve a troca condicional de estado.
type UpdateReportStateParams struct {
	ID            uuid.UUID
	Expected      lifecycle.State
	Next          lifecycle.State
	Coordinator   *uuid.UUID
	ClearAssignee bool
	ActorID       uuid.UUID
	ActorKind     string
}

// UpdateReportState aplica o novo estado somente se o atual ainda for o esperado.
// Nenhuma linha afetada resulta em ErrStale.
func (q *Queries) UpdateReportState(ctx context.Context, arg UpdateReportStateParams) (Report, error) {
	const query = `
        UPDATE reports
        SET state = $3,
            coordinator_leader_id = coalesce($4, coordinator_leader_id),
            assigned_staff_id = CASE WHEN $5 THEN NULL ELSE assigned_staff_id END,
            assigned_at = CASE WHEN $5 THEN NULL ELSE assigned_at END,
            assigned_by = CASE WHEN $5 THEN NULL ELSE assigned_by END,
            updated_by = $6,
            updated_by_kind = $7,
            updated_at = now()
        WHERE id = $1 AND state = $2 AND active
        RETURNING ` + reportColumns

	row := q.db.QueryRow(ctx, query, arg.ID, arg.Expected, arg.Next, arg.Coordinator, arg.ClearAssignee, arg.ActorID, arg.ActorKind)
	return staleOnMiss(scanReport(row))
}

// AssignReportParams descreve a atribuição condicional de técnico.
type AssignReportParams struct {
	ID         uuid.UUID
	Expected   lifecycle.State
	StaffID    uuid.UUID
	AssignedBy uuid.UUID
	AssignedAt time.Time
}

// AssignReport vincula o técnico e move para assigned sob a mesma troca condicional.
func (q *Queries) AssignReport(ctx context.Context, arg AssignReportParams) (Report, error) {
	const query = `
        UPDATE reports
        SET state = $3,
            assigned_staff_id = $4,
            assigned_by = $5,
            assigned_at = $6,
            updated_by = $5,
            updated_by_kind = 'staff',
            updated_at = $6
        WHERE id = $1 AND state = $2 AND active
        RETURNING ` + reportColumns

	row := q.db.QueryRow(ctx, query, arg.ID, arg.Expected, lifecycle.StateAssigned, arg.StaffID, arg.AssignedBy, arg.AssignedAt)
	return staleOnMiss(scanReport(row))
}

// UpdateReportPriority altera a prioridade de um relato ativo.
func (q *Queries) UpdateReportPriority(ctx context.Context, id uuid.UUID, priority lifecycle.Priority, actorID uuid.UUID, actorKind string) (Report, error) {
	const query = `
        UPDATE reports
        SET priority = $2, updated_by = $3, updated_by_kind = $4, updated_at = now()
        WHERE id = $1 AND active
        RETURNING ` + reportColumns

	return scanReport(q.db.QueryRow(ctx, query, id, priority, actorID, actorKind))
}

func staleOnMiss(r Report, err error) (Report, error) {
	if errors.Is(err, ErrNotFound) {
		return Report{}, ErrStale
	}
	return r, err
}

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(
		&r.ID, &r.Number, &r.Title, &r.Description, &r.Address, &r.Priority, &r.ZoneID, &r.ProblemTypeID,
		&r.CreatorKind, &r.CreatorLeaderID, &r.CreatorCitizenID, &r.CoordinatorLeaderID, &r.State,
		&r.AssignedStaffID, &r.AssignedAt, &r.AssignedBy, &r.Active, &r.CreatedAt, &r.UpdatedAt, &r.UpdatedBy, &r.UpdatedByKind,
	)
	if err != nil {
		return Report{}, mapErr(err)
	}
	return r, nil
}
