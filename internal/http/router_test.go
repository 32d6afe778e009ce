package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
	"github.com/gestaozabele/zeladoria/internal/guard"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/registry"
	"github.com/gestaozabele/zeladoria/internal/repo"
	"github.com/gestaozabele/zeladoria/internal/repo/repotest"
	"github.com/gestaozabele/zeladoria/internal/reports"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

type api struct {
	t       *testing.T
	handler http.Handler
	jwt     *auth.JWTManager
	admin   string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	mem := repotest.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	regSvc := registry.NewService(
		repotest.Store[registry.Repository]{Mem: mem, View: func(q *repotest.Memory) registry.Repository { return q }},
		registry.WithHasher(func(p string) (string, error) { return "hash:" + p, nil }),
	)
	repSvc := reports.NewService(
		repotest.Store[reports.Repository]{Mem: mem, View: func(q *repotest.Memory) reports.Repository { return q }},
		reports.WithMetrics(m),
	)
	guardSvc := guard.NewService(
		repotest.Store[guard.Repository]{Mem: mem, View: func(q *repotest.Memory) guard.Repository { return q }},
		m,
	)

	cfg := &config.Config{
		JWTSecret:       strings.Repeat("r", 32),
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, time.Hour)

	h, err := NewRouter(Deps{
		Config:   cfg,
		JWT:      jwtMgr,
		Reports:  repSvc,
		Registry: regSvc,
		Guard:    guardSvc,
		Metrics:  m,
		Gatherer: reg,
	})
	require.NoError(t, err)

	admin, err := regSvc.BootstrapAdministrator(context.Background(), registry.Credentials{Name: "Admin", Email: "admin@pref.gov", Password: "senha-forte"})
	require.NoError(t, err)

	a := &api{t: t, handler: h, jwt: jwtMgr}
	a.admin = a.token(admin.ID, actor.KindStaff)
	return a
}

func (a *api) token(id uuid.UUID, kind actor.Kind) string {
	tok, err := a.jwt.GenerateAccessToken(actor.Actor{ID: id, Kind: kind})
	require.NoError(a.t, err)
	return tok
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestReportFlowOverHTTP(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/zones", a.admin, map[string]any{
		"name": "Centro", "number": 1, "population": 1000, "area_km2": 2.5,
		"council": map[string]any{"name": "Junta Centro"},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	zone := decode[registry.ZoneDetail](t, env)

	code, env = a.do(http.MethodPost, "/zones", a.admin, map[string]any{
		"name": "CENTRO", "number": 9, "council": map[string]any{"name": "Outra"},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	code, env = a.do(http.MethodPost, "/problem-types", a.admin, map[string]any{"name": "Iluminação", "department": "Energy"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	pt := decode[repo.ProblemType](t, env)

	code, env = a.do(http.MethodPost, "/staff", a.admin, map[string]any{
		"name": "Téc Água", "email": "agua@pref.gov", "password": "senha-forte", "kind": "technician", "department": "Water",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	water := decode[repo.Staff](t, env)

	code, env = a.do(http.MethodPost, "/staff", a.admin, map[string]any{
		"name": "Téc Energia", "email": "energia@pref.gov", "password": "senha-forte", "kind": "technician", "department": "energy",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	energy := decode[repo.Staff](t, env)

	code, env = a.do(http.MethodPost, "/leaders", a.admin, map[string]any{
		"name": "Lia", "email": "lia@junta.org", "password": "senha-forte", "kind": "principal", "council_id": zone.Principal.ID,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	leader := decode[repo.Leader](t, env)
	leaderTok := a.token(leader.ID, actor.KindLeader)

	code, env = a.do(http.MethodPost, "/reports", leaderTok, map[string]any{
		"title": "Poste apagado", "description": "Rua escura", "address": "Rua A, 10",
		"priority": "high", "zone_id": zone.ID, "problem_type_id": pt.ID,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	report := decode[repo.Report](t, env)
	assert.Equal(t, "new", string(report.State))
	base := "/reports/" + report.ID.String()

	code, env = a.do(http.MethodPost, base+"/reject", leaderTok, map[string]any{"motive": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MISSING_MOTIVE", env.Error.Code)

	code, env = a.do(http.MethodPost, base+"/approve", leaderTok, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.do(http.MethodPost, base+"/assign", a.admin, map[string]any{"staff_id": water.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "DEPARTMENT_MISMATCH", env.Error.Code)

	code, env = a.do(http.MethodGet, base+"/technicians", a.admin, nil)
	require.Equal(t, http.StatusOK, code)
	techs := decode[[]repo.Staff](t, env)
	require.Len(t, techs, 1)
	assert.Equal(t, energy.ID, techs[0].ID)

	code, env = a.do(http.MethodPost, base+"/assign", a.admin, map[string]any{"staff_id": energy.ID})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "assigned", string(decode[repo.Report](t, env).State))

	code, env = a.do(http.MethodPost, base+"/start", leaderTok, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	code, env = a.do(http.MethodDelete, "/zones/"+zone.ID.String(), a.admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "BLOCKED", env.Error.Code)

	code, env = a.do(http.MethodGet, "/zones/"+zone.ID.String()+"/deactivation", a.admin, nil)
	require.Equal(t, http.StatusOK, code)
	check := decode[guard.Check](t, env)
	assert.False(t, check.Allowed)
	assert.Equal(t, 1, check.Reports)

	code, env = a.do(http.MethodPatch, base+"/priority", leaderTok, map[string]any{"priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PRIORITY", env.Error.Code)

	code, env = a.do(http.MethodGet, base+"/history", leaderTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]repo.ReportEvent](t, env), 3)

	code, env = a.do(http.MethodGet, "/reports?state=assigned", leaderTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]repo.Report](t, env), 1)
}

func TestAuthenticationAndKinds(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodGet, "/reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := a.do(http.MethodPost, "/citizens", "", map[string]any{
		"name": "Ana", "email": "ana@mail.com", "password": "senha-forte",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	citizen := decode[repo.Citizen](t, env)
	citizenTok := a.token(citizen.ID, actor.KindCitizen)

	code, env = a.do(http.MethodPost, "/zones", citizenTok, map[string]any{"name": "X", "number": 1})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, _ = a.do(http.MethodPost, "/reports", a.admin, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodGet, "/reports/abc", citizenTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	code, env = a.do(http.MethodGet, "/reports/"+uuid.NewString(), citizenTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestReportLifecycleListsLabelsAndEdges(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodGet, "/reports/lifecycle", a.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	var body struct {
		States []struct {
			State    string `json:"state"`
			Label    string `json:"label"`
			Order    int    `json:"order"`
			Terminal bool   `json:"terminal"`
		} `json:"states"`
		Transitions []struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Action string `json:"action"`
		} `json:"transitions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.States, 8)
	assert.Equal(t, "new", body.States[0].State)
	assert.Equal(t, "Novo", body.States[0].Label)
	assert.Equal(t, 1, body.States[0].Order)
	assert.True(t, body.States[6].Terminal)
	assert.Len(t, body.Transitions, 8)
	assert.Equal(t, "approve", body.Transitions[0].Action)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zeladoria_http_requests_total")
}

func TestNewRouterRequiresServices(t *testing.T) {
	_, err := NewRouter(Deps{Config: &config.Config{}})
	assert.Error(t, err)
}
