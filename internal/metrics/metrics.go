package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

// Metrics agrega os indicadores do fluxo de relatos e da verificação de vínculos.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	TransitionLatency *prometheus.HistogramVec
	Deactivations     *prometheus.CounterVec
	ReportsCreated    prometheus.Counter
	EventPublishFails prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registra as métricas no registrador informado (DefaultRegisterer quando nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zeladoria_report_transitions_total",
			Help: "Transições de relato por ação e resultado",
		}, []string{"action", "outcome"}),
		TransitionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zeladoria_report_transition_duration_seconds",
			Help:    "Duração das transições de relato, incluindo a transação",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"action"}),
		Deactivations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zeladoria_deactivations_total",
			Help: "Tentativas de desativação por entidade e resultado",
		}, []string{"entity", "outcome"}),
		ReportsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "zeladoria_reports_created_total",
			Help: "Relatos abertos",
		}),
		EventPublishFails: f.NewCounter(prometheus.CounterOpts{
			Name: "zeladoria_event_publish_failures_total",
			Help: "Falhas ao publicar eventos de relato",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zeladoria_http_requests_total",
			Help: "Requisições HTTP por rota, método e status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zeladoria_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveTransition registra resultado e duração de uma transição.
func (m *Metrics) ObserveTransition(action, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, outcome).Inc()
	m.TransitionLatency.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// ObserveDeactivation registra o resultado de uma desativação.
func (m *Metrics) ObserveDeactivation(entity, outcome string) {
	if m == nil {
		return
	}
	m.Deactivations.WithLabelValues(entity, outcome).Inc()
}

// IncReportsCreated conta um relato aberto.
func (m *Metrics) IncReportsCreated() {
	if m == nil {
		return
	}
	m.ReportsCreated.Inc()
}

// IncEventPublishFailure conta uma falha de publicação.
func (m *Metrics) IncEventPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFails.Inc()
}

// ObserveHTTP registra uma requisição pelo padrão de rota, nunca pelo caminho bruto.
func (m *Metrics) ObserveHTTP(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}

// Outcome resume o erro em um rótulo de baixa cardinalidade.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := apperr.As(err); ok {
		return strings.ToLower(string(e.Kind))
	}
	return "internal"
}
