package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/lifecycle"
)

// Contagens usadas pela verificação de vínculos antes de desativar.
// Um relato é considerado aberto quando está ativo e fora dos estados terminais.

const openReports = `SELECT count(*) FROM reports WHERE active AND NOT (state = ANY($2))`

func (q *Queries) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	if err := q.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountOpenReportsByStaff conta relatos abertos atribuídos ao técnico.
func (q *Queries) CountOpenReportsByStaff(ctx context.Context, staffID uuid.UUID) (int, error) {
	return q.count(ctx, openReports+` AND assigned_staff_id = $1`, staffID, lifecycle.TerminalStrings())
}

// CountOpenReportsByLeader conta relatos abertos criados ou coordenados pelo líder.
func (q *Queries) CountOpenReportsByLeader(ctx context.Context, leaderID uuid.UUID) (int, error) {
	return q.count(ctx, openReports+` AND (creator_leader_id = $1 OR coordinator_leader_id = $1)`, leaderID, lifecycle.TerminalStrings())
}

// CountOpenReportsByZone conta relatos abertos da zona.
func (q *Queries) CountOpenReportsByZone(ctx context.Context, zoneID uuid.UUID) (int, error) {
	return q.count(ctx, openReports+` AND zone_id = $1`, zoneID, lifecycle.TerminalStrings())
}

// CountOpenReportsBySubCouncil conta relatos abertos criados ou coordenados pelos líderes da subjunta.
func (q *Queries) CountOpenReportsBySubCouncil(ctx context.Context, councilID uuid.UUID) (int, error) {
	const filter = ` AND EXISTS (
            SELECT 1 FROM leaders l
            WHERE l.sub_council_id = $1
              AND (l.id = reports.creator_leader_id OR l.id = reports.coordinator_leader_id)
        )`
	return q.count(ctx, openReports+filter, councilID, lifecycle.TerminalStrings())
}

// CountOpenReportsByProblemType conta relatos abertos do tipo de problema.
func (q *Queries) CountOpenReportsByProblemType(ctx context.Context, problemTypeID uuid.UUID) (int, error) {
	return q.count(ctx, openReports+` AND problem_type_id = $1`, problemTypeID, lifecycle.TerminalStrings())
}

// CountActiveCitizensByZone conta cidadãos ativos vinculados à zona.
func (q *Queries) CountActiveCitizensByZone(ctx context.Context, zoneID uuid.UUID) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM citizens WHERE active AND zone_id = $1`, zoneID)
}

// CountActiveCitizensBySubCouncil conta cidadãos ativos cuja subjunta mais próxima é a informada.
func (q *Queries) CountActiveCitizensBySubCouncil(ctx context.Context, councilID uuid.UUID) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM citizens WHERE active AND nearest_sub_council_id = $1`, councilID)
}
