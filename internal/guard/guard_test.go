package guard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/repo"
	"github.com/gestaozabele/zeladoria/internal/repo/repotest"
)

var _ Repository = (*repotest.Memory)(nil)

func memStore(m *repotest.Memory) Store {
	return repotest.Store[Repository]{Mem: m, View: func(q *repotest.Memory) Repository { return q }}
}

type world struct {
	mem       *repotest.Memory
	svc       *Service
	admin     actor.Actor
	zone      repo.Zone
	principal repo.Council
	sub       repo.Council
	leader    repo.Leader
	subLeader repo.Leader
	tech      repo.Staff
	pt        repo.ProblemType
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	mem := repotest.New()
	w := &world{mem: mem, svc: NewService(memStore(mem), nil)}

	admin, err := mem.CreateStaff(ctx, repo.CreateStaffParams{Name: "Admin", Email: "admin@pref.gov", Kind: repo.StaffAdministrator})
	require.NoError(t, err)
	w.admin = actor.Actor{ID: admin.ID, Kind: actor.KindStaff}

	w.zone, err = mem.CreateZone(ctx, repo.CreateZoneParams{Name: "Centro", Number: 1, CreatedBy: admin.ID})
	require.NoError(t, err)
	w.principal, err = mem.CreateCouncil(ctx, repo.CreateCouncilParams{ZoneID: w.zone.ID, IsPrincipal: true, Name: "Junta Centro", CreatedBy: admin.ID})
	require.NoError(t, err)
	sector := "Vila Nova"
	w.sub, err = mem.CreateCouncil(ctx, repo.CreateCouncilParams{ZoneID: w.zone.ID, PrincipalID: &w.principal.ID, Name: "Subjunta Vila Nova", Sector: &sector, CreatedBy: admin.ID})
	require.NoError(t, err)

	w.leader, err = mem.CreateLeader(ctx, repo.CreateLeaderParams{Name: "Lia", Email: "lia@junta.org", Kind: repo.LeaderPrincipal, PrincipalCouncilID: &w.principal.ID, CreatedBy: admin.ID})
	require.NoError(t, err)
	w.subLeader, err = mem.CreateLeader(ctx, repo.CreateLeaderParams{Name: "Rui", Email: "rui@junta.org", Kind: repo.LeaderSub, SubCouncilID: &w.sub.ID, CreatedBy: admin.ID})
	require.NoError(t, err)

	dept := "Energy"
	w.tech, err = mem.CreateStaff(ctx, repo.CreateStaffParams{Name: "Téc", Email: "tec@pref.gov", Kind: repo.StaffTechnician, Department: &dept})
	require.NoError(t, err)
	w.pt, err = mem.CreateProblemType(ctx, "Iluminação", "Energy", admin.ID)
	require.NoError(t, err)
	return w
}

func (w *world) report(t *testing.T, creator uuid.UUID, st lifecycle.State) repo.Report {
	t.Helper()
	r, err := w.mem.CreateReport(context.Background(), repo.CreateReportParams{
		Title: "t", Description: "d", Address: "a", Priority: lifecycle.PriorityLow,
		ZoneID: w.zone.ID, ProblemTypeID: w.pt.ID,
		CreatorKind: repo.CreatorLeader, CreatorLeaderID: &creator,
	})
	require.NoError(t, err)
	if st != lifecycle.StateNew {
		w.mem.SetReportState(r.ID, st)
	}
	return r
}

func TestZoneBlockedThenCascade(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	a := w.report(t, w.leader.ID, lifecycle.StateNew)
	b := w.report(t, w.leader.ID, lifecycle.StateInProgress)
	w.report(t, w.leader.ID, lifecycle.StateClosed)

	_, err := w.svc.Deactivate(ctx, w.admin, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)
	n, ok := apperr.BlockedCount(err)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	z, err := w.mem.GetZone(ctx, w.zone.ID, repo.LockNone)
	require.NoError(t, err)
	assert.True(t, z.Active)

	w.mem.SetReportState(a.ID, lifecycle.StateRejectedByLeader)
	w.mem.SetReportState(b.ID, lifecycle.StateClosed)

	check, err := w.svc.CanDeactivate(ctx, EntityZone, w.zone.ID)
	require.NoError(t, err)
	assert.True(t, check.Allowed)

	_, err = w.svc.Deactivate(ctx, w.admin, EntityZone, w.zone.ID)
	require.NoError(t, err)

	z, err = w.mem.GetZone(ctx, w.zone.ID, repo.LockNone)
	require.NoError(t, err)
	assert.False(t, z.Active)
	require.NotNil(t, z.DeactivatedBy)
	assert.Equal(t, w.admin.ID, *z.DeactivatedBy)

	councils, err := w.mem.ListCouncilsByZone(ctx, w.zone.ID, true)
	require.NoError(t, err)
	require.Len(t, councils, 2)
	for _, c := range councils {
		assert.False(t, c.Active, c.Name)
	}

	_, err = w.svc.Deactivate(ctx, w.admin, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestZoneBlockedByCitizens(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	_, err := w.mem.CreateCitizen(ctx, repo.CreateCitizenParams{Name: "C", Email: "c@mail.com", ZoneID: &w.zone.ID})
	require.NoError(t, err)

	check, err := w.svc.CanDeactivate(ctx, EntityZone, w.zone.ID)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 0, check.Reports)
	assert.Equal(t, 1, check.Citizens)

	_, err = w.svc.Deactivate(ctx, w.admin, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)
	n, _ := apperr.BlockedCount(err)
	assert.Equal(t, 1, n)
	e, _ := apperr.As(err)
	assert.Equal(t, 1, e.Details["active_citizens"])
}

func TestZoneBlockedCountsReportsBeforeCitizens(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.report(t, w.leader.ID, lifecycle.StateNew)
	w.report(t, w.leader.ID, lifecycle.StateAssigned)
	_, err := w.mem.CreateCitizen(ctx, repo.CreateCitizenParams{Name: "C", Email: "c@mail.com", ZoneID: &w.zone.ID})
	require.NoError(t, err)

	_, err = w.svc.Deactivate(ctx, w.admin, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)
	n, ok := apperr.BlockedCount(err)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	e, _ := apperr.As(err)
	assert.Equal(t, 2, e.Details["open_reports"])
	assert.Equal(t, 1, e.Details["active_citizens"])
}

func TestStaffBlockedByAssignedReports(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	r, err := w.mem.CreateReport(ctx, repo.CreateReportParams{
		Title: "t", Description: "d", Address: "a", Priority: lifecycle.PriorityHigh,
		ZoneID: w.zone.ID, ProblemTypeID: w.pt.ID,
		CreatorKind: repo.CreatorLeader, CreatorLeaderID: &w.leader.ID,
	})
	require.NoError(t, err)
	w.mem.SetReportState(r.ID, lifecycle.StateApprovedByLeader)
	_, err = w.mem.AssignReport(ctx, repo.AssignReportParams{ID: r.ID, Expected: lifecycle.StateApprovedByLeader, StaffID: w.tech.ID, AssignedBy: w.admin.ID})
	require.NoError(t, err)

	_, err = w.svc.Deactivate(ctx, w.admin, EntityStaff, w.tech.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)
	n, _ := apperr.BlockedCount(err)
	assert.Equal(t, 1, n)

	w.mem.SetReportState(r.ID, lifecycle.StateClosed)
	_, err = w.svc.Deactivate(ctx, w.admin, EntityStaff, w.tech.ID)
	require.NoError(t, err)
}

func TestLeaderBlockedByCreatedOrCoordinated(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.report(t, w.leader.ID, lifecycle.StateResolved)

	check, err := w.svc.CanDeactivate(ctx, EntityLeader, w.leader.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, check.Count)

	other := w.report(t, w.subLeader.ID, lifecycle.StateNew)
	_, err = w.mem.UpdateReportState(ctx, repo.UpdateReportStateParams{
		ID: other.ID, Expected: lifecycle.StateNew, Next: lifecycle.StateApprovedByLeader,
		Coordinator: &w.leader.ID, ActorID: w.leader.ID, ActorKind: "leader",
	})
	require.NoError(t, err)

	check, err = w.svc.CanDeactivate(ctx, EntityLeader, w.leader.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, check.Count)
	assert.False(t, check.Allowed)
}

func TestCouncilRules(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.Deactivate(ctx, w.admin, EntityCouncil, w.principal.ID)
	require.ErrorIs(t, err, apperr.ValidationCode(apperr.CodePrincipalViaZone, ""))

	r := w.report(t, w.subLeader.ID, lifecycle.StateAssigned)
	_, err = w.svc.Deactivate(ctx, w.admin, EntityCouncil, w.sub.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)

	w.mem.SetReportState(r.ID, lifecycle.StateRejectedByLeader)
	_, err = w.svc.Deactivate(ctx, w.admin, EntityCouncil, w.sub.ID)
	require.NoError(t, err)

	c, err := w.mem.GetCouncil(ctx, w.sub.ID, repo.LockNone)
	require.NoError(t, err)
	assert.False(t, c.Active)
}

func TestProblemTypeAndCitizen(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	r := w.report(t, w.leader.ID, lifecycle.StateNew)

	_, err := w.svc.Deactivate(ctx, w.admin, EntityProblemType, w.pt.ID)
	require.ErrorIs(t, err, apperr.ErrBlocked)
	w.mem.SetReportState(r.ID, lifecycle.StateClosed)
	_, err = w.svc.Deactivate(ctx, w.admin, EntityProblemType, w.pt.ID)
	require.NoError(t, err)

	c, err := w.mem.CreateCitizen(ctx, repo.CreateCitizenParams{Name: "C", Email: "c@mail.com"})
	require.NoError(t, err)
	check, err := w.svc.Deactivate(ctx, w.admin, EntityCitizen, c.ID)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
}

func TestDeactivateRequiresAdministrator(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	tech := actor.Actor{ID: w.tech.ID, Kind: actor.KindStaff}
	_, err := w.svc.Deactivate(ctx, tech, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	leader := actor.Actor{ID: w.leader.ID, Kind: actor.KindLeader}
	_, err = w.svc.Deactivate(ctx, leader, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = w.svc.Deactivate(ctx, actor.Actor{}, EntityZone, w.zone.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = w.svc.Deactivate(ctx, w.admin, EntityStaff, w.admin.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUnknownEntity(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.CanDeactivate(context.Background(), EntityZone, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = ParseEntity("planets")
	require.ErrorIs(t, err, apperr.ErrValidation)

	e, err := ParseEntity("problem-types")
	require.NoError(t, err)
	assert.Equal(t, EntityProblemType, e)
}
