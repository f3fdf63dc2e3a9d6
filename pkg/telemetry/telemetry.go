package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adsense_sync"

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Ciclos de atualização por resultado.",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Duração dos ciclos de atualização.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
	})

	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_total",
		Help:      "Consultas de janela por janela e resultado.",
	}, []string{"window", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duração das consultas de janela.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"window"})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Instante do último snapshot gerado com sucesso.",
	})

	companionPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "companion_peers",
		Help:      "Dispositivos companheiros conectados.",
	})

	companionMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "companion_messages_total",
		Help:      "Mensagens trocadas com dispositivos companheiros.",
	}, []string{"direction", "kind"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Requisições HTTP por método e status.",
	}, []string{"method", "status"})
)

func ObserveRefresh(outcome string, elapsed time.Duration) {
	refreshTotal.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(elapsed.Seconds())
}

func ObserveFetch(window, outcome string, elapsed time.Duration) {
	fetchTotal.WithLabelValues(window, outcome).Inc()
	fetchDuration.WithLabelValues(window).Observe(elapsed.Seconds())
}

func SetLastSuccess(t time.Time) {
	lastSuccess.Set(float64(t.Unix()))
}

func SetCompanionPeers(n int) {
	companionPeers.Set(float64(n))
}

// ObserveCompanionMessage registra uma mensagem; direction é "in" ou "out"
func ObserveCompanionMessage(direction, kind string) {
	companionMessages.WithLabelValues(direction, kind).Inc()
}

func ObserveHTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, http.StatusText(status)).Inc()
}

// Handler expõe o registry padrão no formato do Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
