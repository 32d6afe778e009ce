//go:build integration

package reports_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/apperr"
	"github.com/gestaozabele/zeladoria/internal/db/dbtest"
	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/registry"
	"github.com/gestaozabele/zeladoria/internal/repo"
	"github.com/gestaozabele/zeladoria/internal/reports"
)

type pgWorld struct {
	pool   *pgxpool.Pool
	svc    *reports.Service
	admin  actor.Actor
	leader actor.Actor
	tech   repo.Staff
	zone   registry.ZoneDetail
	pt     repo.ProblemType
}

func newPGWorld(t *testing.T) *pgWorld {
	t.Helper()
	ctx := context.Background()
	pool := dbtest.NewPostgres(t)

	reg := registry.NewService(registry.NewPGStore(pool),
		registry.WithHasher(func(p string) (string, error) { return "hash:" + p, nil }))
	w := &pgWorld{pool: pool, svc: reports.NewService(reports.NewPGStore(pool))}

	admin, err := reg.BootstrapAdministrator(ctx, registry.Credentials{Name: "Admin", Email: "admin@pref.gov", Password: "senha-forte"})
	require.NoError(t, err)
	w.admin = actor.Actor{ID: admin.ID, Kind: actor.KindStaff}

	w.zone, err = reg.CreateZone(ctx, w.admin, registry.ZoneInput{
		Name: "Centro", Number: 1, Council: &registry.CouncilInput{Name: "Junta Centro"},
	})
	require.NoError(t, err)
	w.pt, err = reg.CreateProblemType(ctx, w.admin, registry.ProblemTypeInput{Name: "Iluminação", Department: "Energy"})
	require.NoError(t, err)
	w.tech, err = reg.CreateStaff(ctx, w.admin, registry.StaffInput{
		Credentials: registry.Credentials{Name: "Téc", Email: "tec@pref.gov", Password: "senha-forte"},
		Kind:        "technician", Department: " energy ",
	})
	require.NoError(t, err)
	leader, err := reg.CreateLeader(ctx, w.admin, registry.LeaderInput{
		Credentials: registry.Credentials{Name: "Lia", Email: "lia@junta.org", Password: "senha-forte"},
		Kind:        "principal", CouncilID: w.zone.Principal.ID,
	})
	require.NoError(t, err)
	w.leader = actor.Actor{ID: leader.ID, Kind: actor.KindLeader}
	return w
}

func (w *pgWorld) newReport(t *testing.T) repo.Report {
	t.Helper()
	r, err := w.svc.Create(context.Background(), w.leader, reports.CreateInput{
		Title: "Poste apagado", Description: "Rua escura", Address: "Rua A, 10",
		Priority: "high", ZoneID: w.zone.ID, ProblemTypeID: w.pt.ID,
	})
	require.NoError(t, err)
	return r
}

// racingStore executa compete uma única vez, depois da leitura do relato
// e antes da escrita condicional da transação observada.
type racingStore struct {
	reports.Store
	compete func() error
	once    sync.Once
	err     error
}

func (s *racingStore) RunInTx(ctx context.Context, fn func(q reports.Repository) error) error {
	return s.Store.RunInTx(ctx, func(q reports.Repository) error {
		return fn(racingRepo{Repository: q, s: s})
	})
}

func (s *racingStore) race() error {
	s.once.Do(func() { s.err = s.compete() })
	return s.err
}

type racingRepo struct {
	reports.Repository
	s *racingStore
}

func (r racingRepo) UpdateReportState(ctx context.Context, arg repo.UpdateReportStateParams) (repo.Report, error) {
	if err := r.s.race(); err != nil {
		return repo.Report{}, err
	}
	return r.Repository.UpdateReportState(ctx, arg)
}

func (r racingRepo) AssignReport(ctx context.Context, arg repo.AssignReportParams) (repo.Report, error) {
	if err := r.s.race(); err != nil {
		return repo.Report{}, err
	}
	return r.Repository.AssignReport(ctx, arg)
}

func TestPostgresCreateStampsCreator(t *testing.T) {
	w := newPGWorld(t)
	r := w.newReport(t)

	assert.Equal(t, lifecycle.StateNew, r.State)
	assert.Regexp(t, `^R-\d{4}-\d{6}$`, r.Number)
	assert.Equal(t, repo.CreatorLeader, r.CreatorKind)
	require.NotNil(t, r.CreatorLeaderID)
	assert.Equal(t, w.leader.ID, *r.CreatorLeaderID)
	assert.Nil(t, r.CreatorCitizenID)
	assert.Equal(t, w.leader.ID, r.UpdatedBy)
}

func TestPostgresAssignLosingCommittedRaceIsStale(t *testing.T) {
	ctx := context.Background()
	w := newPGWorld(t)
	r := w.newReport(t)
	_, err := w.svc.Approve(ctx, w.leader, r.ID, "")
	require.NoError(t, err)

	rs := &racingStore{
		Store:   reports.NewPGStore(w.pool),
		compete: func() error { _, err := w.svc.Assign(ctx, w.admin, r.ID, w.tech.ID); return err },
	}
	loser := reports.NewService(rs)

	_, err = loser.Assign(ctx, w.admin, r.ID, w.tech.ID)
	require.NoError(t, rs.err)
	require.ErrorIs(t, err, apperr.ErrStaleState)

	history, err := w.svc.History(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestPostgresTransitionLosingCommittedRaceIsStale(t *testing.T) {
	ctx := context.Background()
	w := newPGWorld(t)
	r := w.newReport(t)

	rs := &racingStore{
		Store:   reports.NewPGStore(w.pool),
		compete: func() error { _, err := w.svc.Approve(ctx, w.leader, r.ID, ""); return err },
	}
	loser := reports.NewService(rs)

	_, err := loser.Reject(ctx, w.leader, r.ID, string(lifecycle.MotiveDuplicate), "")
	require.NoError(t, rs.err)
	require.ErrorIs(t, err, apperr.ErrStaleState)

	got, err := w.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateApprovedByLeader, got.State)
}

func TestPostgresLifecycleAndConcurrentAssign(t *testing.T) {
	ctx := context.Background()
	w := newPGWorld(t)
	r := w.newReport(t)

	_, err := w.svc.Approve(ctx, w.leader, r.ID, "ok")
	require.NoError(t, err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		failures []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := w.svc.Assign(ctx, w.admin, r.ID, w.tech.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
				return
			}
			failures = append(failures, err)
		}()
	}
	close(start)
	wg.Wait()

	// Quem leu antes do commit do vencedor recebe StaleState; quem leu depois vê assigned.
	assert.Equal(t, 1, winners)
	require.Len(t, failures, workers-1)
	for _, err := range failures {
		lost := errors.Is(err, apperr.ErrStaleState) || errors.Is(err, apperr.ErrInvalidTransition)
		assert.True(t, lost, "erro inesperado: %v", err)
	}

	got, err := w.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateAssigned, got.State)
	require.NotNil(t, got.AssignedStaffID)
	assert.Equal(t, w.tech.ID, *got.AssignedStaffID)

	history, err := w.svc.History(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, lifecycle.ActionAssign, history[2].Action)

	techActor := actor.Actor{ID: w.tech.ID, Kind: actor.KindStaff}
	_, err = w.svc.Start(ctx, techActor, r.ID, "")
	require.NoError(t, err)
	_, err = w.svc.Resolve(ctx, techActor, r.ID, "trocada a lâmpada")
	require.NoError(t, err)
	closed, err := w.svc.Validate(ctx, w.leader, r.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateClosed, closed.State)

	list, err := w.svc.List(ctx, reports.ListFilter{State: string(lifecycle.StateClosed)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	_, err = w.svc.Start(ctx, techActor, r.ID, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}
