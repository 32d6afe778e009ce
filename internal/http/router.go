package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/zeladoria/internal/actor"
	"github.com/gestaozabele/zeladoria/internal/auth"
	"github.com/gestaozabele/zeladoria/internal/config"
	"github.com/gestaozabele/zeladoria/internal/guard"
	httpmiddleware "github.com/gestaozabele/zeladoria/internal/http/middleware"
	"github.com/gestaozabele/zeladoria/internal/metrics"
	"github.com/gestaozabele/zeladoria/internal/registry"
	"github.com/gestaozabele/zeladoria/internal/reports"
)

// Pinger é satisfeito por *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps reúne o que o roteador precisa. Redis e Gatherer são opcionais.
type Deps struct {
	Config   *config.Config
	DB       Pinger
	Redis    redis.UniversalClient
	JWT      *auth.JWTManager
	Reports  *reports.Service
	Registry *registry.Service
	Guard    *guard.Service
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type Handler struct {
	cfg           *config.Config
	db            Pinger
	redis         redis.UniversalClient
	reports       *reports.Service
	registry      *registry.Service
	guard         *guard.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(d Deps) (http.Handler, error) {
	switch {
	case d.Config == nil:
		return nil, errors.New("router: config obrigatória")
	case d.JWT == nil:
		return nil, errors.New("router: jwt obrigatório")
	case d.Reports == nil || d.Registry == nil || d.Guard == nil:
		return nil, errors.New("router: serviços obrigatórios")
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{
		cfg:           d.Config,
		db:            d.DB,
		redis:         d.Redis,
		reports:       d.Reports,
		registry:      d.Registry,
		guard:         d.Guard,
		publicLimiter: httpmiddleware.NewRateLimiter(d.Config.RateLimitPublic.RequestsPerSecond, d.Config.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(d.Config.RateLimitAuth.RequestsPerSecond, d.Config.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging(d.Metrics))
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(d.Config.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

		public.With(httpmiddleware.IPRateLimit(h.publicLimiter)).Post("/citizens", h.RegisterCitizen)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Authenticate(d.JWT))
		private.Use(httpmiddleware.ActorRateLimit(h.authLimiter))

		private.Route("/reports", func(rr chi.Router) {
			rr.Get("/", h.ListReports)
			rr.Get("/lifecycle", h.ReportLifecycle)
			rr.With(httpmiddleware.RequireKind(actor.KindLeader, actor.KindCitizen)).Post("/", h.CreateReport)
			rr.Route("/{id}", func(one chi.Router) {
				one.Get("/", h.GetReport)
				one.Get("/history", h.ReportHistory)
				one.Get("/technicians", h.EligibleTechnicians)
				one.Post("/approve", h.reportAction(h.approveReport))
				one.Post("/reject", h.reportAction(h.rejectReport))
				one.Post("/assign", h.reportAction(h.assignReport))
				one.Post("/start", h.reportAction(h.startReport))
				one.Post("/resolve", h.reportAction(h.resolveReport))
				one.Post("/validate", h.reportAction(h.validateReport))
				one.Post("/override", h.reportAction(h.overrideReport))
				one.Patch("/priority", h.reportAction(h.changePriority))
			})
		})

		private.Route("/zones", func(z chi.Router) {
			z.Get("/", h.ListZones)
			z.Get("/{id}", h.GetZone)
			z.Get("/{id}/councils", h.ListCouncils)
			z.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireKind(actor.KindStaff))
				admin.Post("/", h.CreateZone)
				admin.Put("/{id}", h.UpdateZone)
				admin.Post("/{id}/subcouncils", h.CreateSubCouncil)
				h.mountDeactivation(admin, guard.EntityZone)
			})
		})

		private.Route("/councils", func(c chi.Router) {
			c.Get("/{id}/leaders", h.ListCouncilLeaders)
			c.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireKind(actor.KindStaff))
				h.mountDeactivation(admin, guard.EntityCouncil)
			})
		})

		private.Route("/leaders", func(l chi.Router) {
			l.Get("/{id}", h.GetLeader)
			l.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireKind(actor.KindStaff))
				admin.Post("/", h.CreateLeader)
				h.mountDeactivation(admin, guard.EntityLeader)
			})
		})

		// POST /citizens é público; as demais rotas do cadastro ficam aqui sem Route para não sobrepor.
		private.Get("/citizens/{id}", h.GetCitizen)
		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireKind(actor.KindStaff))
			admin.Get("/citizens/{id}/deactivation", h.canDeactivate(guard.EntityCitizen))
			admin.Delete("/citizens/{id}", h.deactivate(guard.EntityCitizen))
		})

		private.Route("/staff", func(s chi.Router) {
			s.Use(httpmiddleware.RequireKind(actor.KindStaff))
			s.Get("/", h.ListStaff)
			s.Post("/", h.CreateStaff)
			s.Get("/{id}", h.GetStaff)
			h.mountDeactivation(s, guard.EntityStaff)
		})

		private.Route("/problem-types", func(p chi.Router) {
			p.Get("/", h.ListProblemTypes)
			p.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireKind(actor.KindStaff))
				admin.Post("/", h.CreateProblemType)
				h.mountDeactivation(admin, guard.EntityProblemType)
			})
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e, quando configurado, Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, redisErr error
	if h.db != nil {
		dbErr = h.db.Ping(ctx)
	}
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
