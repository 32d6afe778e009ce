package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestaozabele/zeladoria/internal/lifecycle"
)

// InsertReportEventParams contém os dados do histórico.
type InsertReportEventParams struct {
	ReportID  uuid.UUID
	Action    lifecycle.Action
	FromState *lifecycle.State
	ToState   lifecycle.State
	ActorID   uuid.UUID
	ActorKind string
	Comment   *string
	Motive    *string
	StaffID   *uuid.UUID
	Priority  *string
}

// InsertReportEvent grava uma entrada de histórico na mesma transação da mudança.
func (q *Queries) InsertReportEvent(ctx context.Context, arg InsertReportEventParams) (ReportEvent, error) {
	const query = `
        INSERT INTO report_events (report_id, action, from_state, to_state, actor_id, actor_kind, comment, motive, staff_id, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, report_id, action, from_state, to_state, actor_id, actor_kind, comment, motive, staff_id, priority, created_at`

	row := q.db.QueryRow(ctx, query,
		arg.ReportID,
		arg.Action,
		arg.FromState,
		arg.ToState,
		arg.ActorID,
		arg.ActorKind,
		arg.Comment,
		arg.Motive,
		arg.StaffID,
		arg.Priority,
	)
	return scanReportEvent(row)
}

// ListReportEvents devolve o histórico em ordem cronológica.
func (q *Queries) ListReportEvents(ctx context.Context, reportID uuid.UUID) ([]ReportEvent, error) {
	const query = `
        SELECT id, report_id, action, from_state, to_state, actor_id, actor_kind, comment, motive, staff_id, priority, created_at
        FROM report_events
        WHERE report_id = $1
        ORDER BY created_at, id`

	rows, err := q.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ReportEvent
	for rows.Next() {
		ev, err := scanReportEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanReportEvent(row pgx.Row) (ReportEvent, error) {
	var ev ReportEvent
	err := row.Scan(&ev.ID, &ev.ReportID, &ev.Action, &ev.FromState, &ev.ToState, &ev.ActorID, &ev.ActorKind, &ev.Comment, &ev.Motive, &ev.StaffID, &ev.Priority, &ev.CreatedAt)
	if err != nil {
		return ReportEvent{}, mapErr(err)
	}
	return ev, nil
}
