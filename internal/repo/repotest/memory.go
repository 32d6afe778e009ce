// Package repotest oferece um repositório em memória com a mesma semântica
// das consultas Postgres, usado nos testes de serviço.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/lifecycle"
	"github.com/gestaozabele/zeladoria/internal/repo"
)

var errForeignKey = errors.New("repotest: referência inexistente")

type state struct {
	zones        map[uuid.UUID]repo.Zone
	councils     map[uuid.UUID]repo.Council
	leaders      map[uuid.UUID]repo.Leader
	citizens     map[uuid.UUID]repo.Citizen
	staff        map[uuid.UUID]repo.Staff
	problemTypes map[uuid.UUID]repo.ProblemType
	reports      map[uuid.UUID]repo.Report
	events       []repo.ReportEvent
	reportSeq    int
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		zones:        cloneMap(s.zones),
		councils:     cloneMap(s.councils),
		leaders:      cloneMap(s.leaders),
		citizens:     cloneMap(s.citizens),
		staff:        cloneMap(s.staff),
		problemTypes: cloneMap(s.problemTypes),
		reports:      cloneMap(s.reports),
		events:       append([]repo.ReportEvent(nil), s.events...),
		reportSeq:    s.reportSeq,
	}
}

// Memory implementa as consultas de repo.Queries usadas pelos serviços.
// Tx e Read serializam o acesso; erro dentro de Tx restaura o estado anterior.
type Memory struct {
	mu    sync.Mutex
	data  state
	clock time.Time
}

// New cria um repositório vazio.
func New() *Memory {
	return &Memory{
		data: state{
			zones:        map[uuid.UUID]repo.Zone{},
			councils:     map[uuid.UUID]repo.Council{},
			leaders:      map[uuid.UUID]repo.Leader{},
			citizens:     map[uuid.UUID]repo.Citizen{},
			staff:        map[uuid.UUID]repo.Staff{},
			problemTypes: map[uuid.UUID]repo.ProblemType{},
			reports:      map[uuid.UUID]repo.Report{},
		},
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Tx executa fn de forma exclusiva e desfaz as alterações se fn falhar.
func (m *Memory) Tx(fn func(*Memory) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(m); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// Read executa fn de forma exclusiva, sem desfazer nada.
func (m *Memory) Read(fn func(*Memory) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

// Events devolve uma cópia do histórico gravado.
func (m *Memory) Events() []repo.ReportEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repo.ReportEvent(nil), m.data.events...)
}

// SetReportState altera o estado diretamente, simulando escrita concorrente.
func (m *Memory) SetReportState(id uuid.UUID, st lifecycle.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.data.reports[id]
	r.State = st
	m.data.reports[id] = r
}

func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func unique(constraint string) error {
	return &repo.UniqueError{Constraint: constraint}
}

func sameFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func ptr[T any](v T) *T { return &v }

// Zonas.

func (m *Memory) CreateZone(_ context.Context, arg repo.CreateZoneParams) (repo.Zone, error) {
	for _, z := range m.data.zones {
		if !z.Active {
			continue
		}
		if sameFold(z.Name, arg.Name) {
			return repo.Zone{}, unique("zones_active_name_uq")
		}
		if z.Number == arg.Number {
			return repo.Zone{}, unique("zones_active_number_uq")
		}
	}
	now := m.tick()
	z := repo.Zone{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(arg.Name),
		Number:     arg.Number,
		Population: arg.Population,
		AreaKm2:    arg.AreaKm2,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.data.zones[z.ID] = z
	return z, nil
}

func (m *Memory) GetZone(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Zone, error) {
	z, ok := m.data.zones[id]
	if !ok {
		return repo.Zone{}, repo.ErrNotFound
	}
	return z, nil
}

func (m *Memory) ListZones(_ context.Context, includeInactive bool) ([]repo.Zone, error) {
	var out []repo.Zone
	for _, z := range m.data.zones {
		if z.Active || includeInactive {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) ZoneNameTaken(_ context.Context, name string, exclude *uuid.UUID) (bool, error) {
	for _, z := range m.data.zones {
		if z.Active && sameFold(z.Name, name) && (exclude == nil || z.ID != *exclude) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ZoneNumberTaken(_ context.Context, number int, exclude *uuid.UUID) (bool, error) {
	for _, z := range m.data.zones {
		if z.Active && z.Number == number && (exclude == nil || z.ID != *exclude) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateZone(ctx context.Context, arg repo.UpdateZoneParams) (repo.Zone, error) {
	z, ok := m.data.zones[arg.ID]
	if !ok || !z.Active {
		return repo.Zone{}, repo.ErrNotFound
	}
	if taken, _ := m.ZoneNameTaken(ctx, arg.Name, &arg.ID); taken {
		return repo.Zone{}, unique("zones_active_name_uq")
	}
	if taken, _ := m.ZoneNumberTaken(ctx, arg.Number, &arg.ID); taken {
		return repo.Zone{}, unique("zones_active_number_uq")
	}
	z.Name = strings.TrimSpace(arg.Name)
	z.Number = arg.Number
	z.Population = arg.Population
	z.AreaKm2 = arg.AreaKm2
	z.UpdatedAt = m.tick()
	m.data.zones[z.ID] = z
	return z, nil
}

func (m *Memory) DeactivateZone(_ context.Context, id, actorID uuid.UUID) error {
	z, ok := m.data.zones[id]
	if !ok || !z.Active {
		return repo.ErrNotFound
	}
	now := m.tick()
	z.Active = false
	z.DeactivatedBy = ptr(actorID)
	z.DeactivatedAt = &now
	z.UpdatedAt = now
	m.data.zones[id] = z
	return nil
}

// Juntas.

func (m *Memory) CreateCouncil(_ context.Context, arg repo.CreateCouncilParams) (repo.Council, error) {
	if _, ok := m.data.zones[arg.ZoneID]; !ok {
		return repo.Council{}, errForeignKey
	}
	for _, c := range m.data.councils {
		if !c.Active {
			continue
		}
		if arg.IsPrincipal && c.IsPrincipal && c.ZoneID == arg.ZoneID {
			return repo.Council{}, unique("councils_one_principal_uq")
		}
		if !arg.IsPrincipal && !c.IsPrincipal && arg.PrincipalID != nil && c.PrincipalID != nil &&
			*c.PrincipalID == *arg.PrincipalID && arg.Sector != nil && c.Sector != nil && sameFold(*c.Sector, *arg.Sector) {
			return repo.Council{}, unique("councils_active_sector_uq")
		}
	}
	now := m.tick()
	c := repo.Council{
		ID:          uuid.New(),
		ZoneID:      arg.ZoneID,
		IsPrincipal: arg.IsPrincipal,
		PrincipalID: arg.PrincipalID,
		Name:        strings.TrimSpace(arg.Name),
		Sector:      arg.Sector,
		Phone:       arg.Phone,
		Email:       arg.Email,
		Address:     arg.Address,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.data.councils[c.ID] = c
	return c, nil
}

func (m *Memory) GetCouncil(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Council, error) {
	c, ok := m.data.councils[id]
	if !ok {
		return repo.Council{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *Memory) GetPrincipalCouncil(_ context.Context, zoneID uuid.UUID, _ repo.Lock) (repo.Council, error) {
	for _, c := range m.data.councils {
		if c.Active && c.IsPrincipal && c.ZoneID == zoneID {
			return c, nil
		}
	}
	return repo.Council{}, repo.ErrNotFound
}

func (m *Memory) ListCouncilsByZone(_ context.Context, zoneID uuid.UUID, includeInactive bool) ([]repo.Council, error) {
	var out []repo.Council
	for _, c := range m.data.councils {
		if c.ZoneID == zoneID && (c.Active || includeInactive) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrincipal != out[j].IsPrincipal {
			return out[i].IsPrincipal
		}
		si, sj := "", ""
		if out[i].Sector != nil {
			si = *out[i].Sector
		}
		if out[j].Sector != nil {
			sj = *out[j].Sector
		}
		if si != sj {
			return si < sj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) SectorTaken(_ context.Context, principalID uuid.UUID, sector string) (bool, error) {
	for _, c := range m.data.councils {
		if c.Active && !c.IsPrincipal && c.PrincipalID != nil && *c.PrincipalID == principalID &&
			c.Sector != nil && sameFold(*c.Sector, sector) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateCouncil(_ context.Context, arg repo.UpdateCouncilParams) (repo.Council, error) {
	c, ok := m.data.councils[arg.ID]
	if !ok || !c.Active {
		return repo.Council{}, repo.ErrNotFound
	}
	c.Name = strings.TrimSpace(arg.Name)
	c.Phone = arg.Phone
	c.Email = arg.Email
	c.Address = arg.Address
	c.UpdatedAt = m.tick()
	m.data.councils[c.ID] = c
	return c, nil
}

func (m *Memory) DeactivateCouncil(_ context.Context, id, _ uuid.UUID) error {
	c, ok := m.data.councils[id]
	if !ok || !c.Active {
		return repo.ErrNotFound
	}
	c.Active = false
	c.UpdatedAt = m.tick()
	m.data.councils[id] = c
	return nil
}

func (m *Memory) DeactivateCouncilsByZone(_ context.Context, zoneID, _ uuid.UUID) (int64, error) {
	var n int64
	now := m.tick()
	for id, c := range m.data.councils {
		if c.ZoneID == zoneID && c.Active {
			c.Active = false
			c.UpdatedAt = now
			m.data.councils[id] = c
			n++
		}
	}
	return n, nil
}

// Contas.

func (m *Memory) EmailTaken(_ context.Context, table repo.AccountTable, email string) (bool, error) {
	switch table {
	case repo.AccountLeaders:
		for _, l := range m.data.leaders {
			if l.Active && sameFold(l.Email, email) {
				return true, nil
			}
		}
	case repo.AccountCitizens:
		for _, c := range m.data.citizens {
			if c.Active && sameFold(c.Email, email) {
				return true, nil
			}
		}
	case repo.AccountStaff:
		for _, s := range m.data.staff {
			if s.Active && sameFold(s.Email, email) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *Memory) CreateLeader(ctx context.Context, arg repo.CreateLeaderParams) (repo.Leader, error) {
	councilID := arg.PrincipalCouncilID
	if councilID == nil {
		councilID = arg.SubCouncilID
	}
	if councilID == nil {
		return repo.Leader{}, errForeignKey
	}
	council, ok := m.data.councils[*councilID]
	if !ok {
		return repo.Leader{}, errForeignKey
	}
	if taken, _ := m.EmailTaken(ctx, repo.AccountLeaders, arg.Email); taken {
		return repo.Leader{}, unique("leaders_active_email_uq")
	}
	l := repo.Leader{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(arg.Name),
		Email:              strings.ToLower(strings.TrimSpace(arg.Email)),
		PasswordHash:       arg.PasswordHash,
		Kind:               arg.Kind,
		PrincipalCouncilID: arg.PrincipalCouncilID,
		SubCouncilID:       arg.SubCouncilID,
		ZoneID:             council.ZoneID,
		Active:             true,
		CreatedAt:          m.tick(),
	}
	m.data.leaders[l.ID] = l
	return l, nil
}

func (m *Memory) GetLeader(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Leader, error) {
	l, ok := m.data.leaders[id]
	if !ok {
		return repo.Leader{}, repo.ErrNotFound
	}
	return l, nil
}

func (m *Memory) ListLeadersByCouncil(_ context.Context, councilID uuid.UUID) ([]repo.Leader, error) {
	var out []repo.Leader
	for _, l := range m.data.leaders {
		if !l.Active {
			continue
		}
		if (l.PrincipalCouncilID != nil && *l.PrincipalCouncilID == councilID) ||
			(l.SubCouncilID != nil && *l.SubCouncilID == councilID) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeactivateLeader(_ context.Context, id, _ uuid.UUID) error {
	l, ok := m.data.leaders[id]
	if !ok || !l.Active {
		return repo.ErrNotFound
	}
	l.Active = false
	m.data.leaders[id] = l
	return nil
}

func (m *Memory) CreateCitizen(ctx context.Context, arg repo.CreateCitizenParams) (repo.Citizen, error) {
	if taken, _ := m.EmailTaken(ctx, repo.AccountCitizens, arg.Email); taken {
		return repo.Citizen{}, unique("citizens_active_email_uq")
	}
	c := repo.Citizen{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(arg.Name),
		Email:               strings.ToLower(strings.TrimSpace(arg.Email)),
		PasswordHash:        arg.PasswordHash,
		ZoneID:              arg.ZoneID,
		NearestSubCouncilID: arg.NearestSubCouncilID,
		Active:              true,
		CreatedAt:           m.tick(),
	}
	m.data.citizens[c.ID] = c
	return c, nil
}

func (m *Memory) GetCitizen(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Citizen, error) {
	c, ok := m.data.citizens[id]
	if !ok {
		return repo.Citizen{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *Memory) DeactivateCitizen(_ context.Context, id, _ uuid.UUID) error {
	c, ok := m.data.citizens[id]
	if !ok || !c.Active {
		return repo.ErrNotFound
	}
	c.Active = false
	m.data.citizens[id] = c
	return nil
}

func (m *Memory) CreateStaff(ctx context.Context, arg repo.CreateStaffParams) (repo.Staff, error) {
	if taken, _ := m.EmailTaken(ctx, repo.AccountStaff, arg.Email); taken {
		return repo.Staff{}, unique("staff_active_email_uq")
	}
	s := repo.Staff{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(arg.Name),
		Email:        strings.ToLower(strings.TrimSpace(arg.Email)),
		PasswordHash: arg.PasswordHash,
		Kind:         arg.Kind,
		Department:   arg.Department,
		CanAssign:    arg.CanAssign,
		Active:       true,
		CreatedAt:    m.tick(),
	}
	m.data.staff[s.ID] = s
	return s, nil
}

func (m *Memory) GetStaff(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Staff, error) {
	s, ok := m.data.staff[id]
	if !ok {
		return repo.Staff{}, repo.ErrNotFound
	}
	return s, nil
}

func (m *Memory) ListStaff(_ context.Context, filter repo.StaffFilter) ([]repo.Staff, error) {
	var out []repo.Staff
	for _, s := range m.data.staff {
		if filter.ActiveOnly && !s.Active {
			continue
		}
		if filter.Kind != "" && s.Kind != filter.Kind {
			continue
		}
		if filter.Department != "" && !sameFold(s.DepartmentName(), filter.Department) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeactivateStaff(_ context.Context, id, _ uuid.UUID) error {
	s, ok := m.data.staff[id]
	if !ok || !s.Active {
		return repo.ErrNotFound
	}
	s.Active = false
	m.data.staff[id] = s
	return nil
}

// Tipos de problema.

func (m *Memory) CreateProblemType(ctx context.Context, name, department string, _ uuid.UUID) (repo.ProblemType, error) {
	if taken, _ := m.ProblemTypeNameTaken(ctx, name); taken {
		return repo.ProblemType{}, unique("problem_types_active_name_uq")
	}
	pt := repo.ProblemType{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		Department: strings.TrimSpace(department),
		Active:     true,
		CreatedAt:  m.tick(),
	}
	m.data.problemTypes[pt.ID] = pt
	return pt, nil
}

func (m *Memory) GetProblemType(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.ProblemType, error) {
	pt, ok := m.data.problemTypes[id]
	if !ok {
		return repo.ProblemType{}, repo.ErrNotFound
	}
	return pt, nil
}

func (m *Memory) ListProblemTypes(_ context.Context) ([]repo.ProblemType, error) {
	var out []repo.ProblemType
	for _, pt := range m.data.problemTypes {
		if pt.Active {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ProblemTypeNameTaken(_ context.Context, name string) (bool, error) {
	for _, pt := range m.data.problemTypes {
		if pt.Active && sameFold(pt.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) DeactivateProblemType(_ context.Context, id, _ uuid.UUID) error {
	pt, ok := m.data.problemTypes[id]
	if !ok || !pt.Active {
		return repo.ErrNotFound
	}
	pt.Active = false
	m.data.problemTypes[id] = pt
	return nil
}

// Relatos.

func (m *Memory) CreateReport(_ context.Context, arg repo.CreateReportParams) (repo.Report, error) {
	if _, ok := m.data.zones[arg.ZoneID]; !ok {
		return repo.Report{}, errForeignKey
	}
	if _, ok := m.data.problemTypes[arg.ProblemTypeID]; !ok {
		return repo.Report{}, errForeignKey
	}
	creator := arg.CreatorLeaderID
	if creator == nil {
		creator = arg.CreatorCitizenID
	}
	if creator == nil {
		return repo.Report{}, errForeignKey
	}

	m.data.reportSeq++
	now := m.tick()
	r := repo.Report{
		ID:               uuid.New(),
		Number:           fmt.Sprintf("R-%d-%06d", now.Year(), m.data.reportSeq),
		Title:            strings.TrimSpace(arg.Title),
		Description:      strings.TrimSpace(arg.Description),
		Address:          strings.TrimSpace(arg.Address),
		Priority:         arg.Priority,
		ZoneID:           arg.ZoneID,
		ProblemTypeID:    arg.ProblemTypeID,
		CreatorKind:      arg.CreatorKind,
		CreatorLeaderID:  arg.CreatorLeaderID,
		CreatorCitizenID: arg.CreatorCitizenID,
		State:            lifecycle.StateNew,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
		UpdatedBy:        *creator,
		UpdatedByKind:    arg.CreatorKind,
	}
	m.data.reports[r.ID] = r
	return r, nil
}

func (m *Memory) GetReport(_ context.Context, id uuid.UUID, _ repo.Lock) (repo.Report, error) {
	r, ok := m.data.reports[id]
	if !ok {
		return repo.Report{}, repo.ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListReports(_ context.Context, filter repo.ReportFilter) ([]repo.Report, error) {
	var out []repo.Report
	for _, r := range m.data.reports {
		if !r.Active {
			continue
		}
		if filter.ZoneID != nil && r.ZoneID != *filter.ZoneID {
			continue
		}
		if filter.State != nil && r.State != *filter.State {
			continue
		}
		if filter.AssignedStaffID != nil && (r.AssignedStaffID == nil || *r.AssignedStaffID != *filter.AssignedStaffID) {
			continue
		}
		if filter.CreatorID != nil && r.CreatorID() != *filter.CreatorID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateReportState(_ context.Context, arg repo.UpdateReportStateParams) (repo.Report, error) {
	r, ok := m.data.reports[arg.ID]
	if !ok || !r.Active || r.State != arg.Expected {
		return repo.Report{}, repo.ErrStale
	}
	r.State = arg.Next
	if arg.Coordinator != nil {
		r.CoordinatorLeaderID = ptr(*arg.Coordinator)
	}
	if arg.ClearAssignee {
		r.AssignedStaffID = nil
		r.AssignedAt = nil
		r.AssignedBy = nil
	}
	if r.AssignedStaffID != nil && !r.State.AllowsAssignee() {
		return repo.Report{}, errors.New("repotest: reports_assignee_state_ck")
	}
	r.UpdatedBy = arg.ActorID
	r.UpdatedByKind = arg.ActorKind
	r.UpdatedAt = m.tick()
	m.data.reports[r.ID] = r
	return r, nil
}

func (m *Memory) AssignReport(_ context.Context, arg repo.AssignReportParams) (repo.Report, error) {
	r, ok := m.data.reports[arg.ID]
	if !ok || !r.Active || r.State != arg.Expected {
		return repo.Report{}, repo.ErrStale
	}
	r.State = lifecycle.StateAssigned
	r.AssignedStaffID = ptr(arg.StaffID)
	r.AssignedBy = ptr(arg.AssignedBy)
	r.AssignedAt = ptr(arg.AssignedAt)
	r.UpdatedBy = arg.AssignedBy
	r.UpdatedByKind = "staff"
	r.UpdatedAt = arg.AssignedAt
	m.data.reports[r.ID] = r
	return r, nil
}

func (m *Memory) UpdateReportPriority(_ context.Context, id uuid.UUID, priority lifecycle.Priority, actorID uuid.UUID, actorKind string) (repo.Report, error) {
	r, ok := m.data.reports[id]
	if !ok || !r.Active {
		return repo.Report{}, repo.ErrNotFound
	}
	r.Priority = priority
	r.UpdatedBy = actorID
	r.UpdatedByKind = actorKind
	r.UpdatedAt = m.tick()
	m.data.reports[id] = r
	return r, nil
}

func (m *Memory) InsertReportEvent(_ context.Context, arg repo.InsertReportEventParams) (repo.ReportEvent, error) {
	if _, ok := m.data.reports[arg.ReportID]; !ok {
		return repo.ReportEvent{}, errForeignKey
	}
	ev := repo.ReportEvent{
		ID:        uuid.New(),
		ReportID:  arg.ReportID,
		Action:    arg.Action,
		FromState: arg.FromState,
		ToState:   arg.ToState,
		ActorID:   arg.ActorID,
		ActorKind: arg.ActorKind,
		Comment:   arg.Comment,
		Motive:    arg.Motive,
		StaffID:   arg.StaffID,
		Priority:  arg.Priority,
		CreatedAt: m.tick(),
	}
	m.data.events = append(m.data.events, ev)
	return ev, nil
}

func (m *Memory) ListReportEvents(_ context.Context, reportID uuid.UUID) ([]repo.ReportEvent, error) {
	var out []repo.ReportEvent
	for _, ev := range m.data.events {
		if ev.ReportID == reportID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Contagens da verificação de vínculos.

func (m *Memory) countOpen(match func(repo.Report) bool) int {
	n := 0
	for _, r := range m.data.reports {
		if r.Active && !r.State.Terminal() && match(r) {
			n++
		}
	}
	return n
}

func eq(p *uuid.UUID, id uuid.UUID) bool { return p != nil && *p == id }

func (m *Memory) CountOpenReportsByStaff(_ context.Context, id uuid.UUID) (int, error) {
	return m.countOpen(func(r repo.Report) bool { return eq(r.AssignedStaffID, id) }), nil
}

func (m *Memory) CountOpenReportsByLeader(_ context.Context, id uuid.UUID) (int, error) {
	return m.countOpen(func(r repo.Report) bool {
		return eq(r.CreatorLeaderID, id) || eq(r.CoordinatorLeaderID, id)
	}), nil
}

func (m *Memory) CountOpenReportsByZone(_ context.Context, id uuid.UUID) (int, error) {
	return m.countOpen(func(r repo.Report) bool { return r.ZoneID == id }), nil
}

func (m *Memory) CountOpenReportsBySubCouncil(_ context.Context, id uuid.UUID) (int, error) {
	leaders := map[uuid.UUID]bool{}
	for _, l := range m.data.leaders {
		if eq(l.SubCouncilID, id) {
			leaders[l.ID] = true
		}
	}
	return m.countOpen(func(r repo.Report) bool {
		return (r.CreatorLeaderID != nil && leaders[*r.CreatorLeaderID]) ||
			(r.CoordinatorLeaderID != nil && leaders[*r.CoordinatorLeaderID])
	}), nil
}

func (m *Memory) CountOpenReportsByProblemType(_ context.Context, id uuid.UUID) (int, error) {
	return m.countOpen(func(r repo.Report) bool { return r.ProblemTypeID == id }), nil
}

func (m *Memory) CountActiveCitizensByZone(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.data.citizens {
		if c.Active && eq(c.ZoneID, id) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountActiveCitizensBySubCouncil(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.data.citizens {
		if c.Active && eq(c.NearestSubCouncilID, id) {
			n++
		}
	}
	return n, nil
}
