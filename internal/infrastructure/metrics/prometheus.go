// Package metrics implementa ports.Metrics con Prometheus y expone métricas HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics contadores e histogramas del back-office.
type Metrics struct {
	activationsTotal   *prometheus.CounterVec
	walletOpsTotal     *prometheus.CounterVec
	walletAmount       *prometheus.HistogramVec
	sweepScannedTotal  prometheus.Counter
	sweepUpdatedTotal  prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// NewMetrics registra las métricas en reg bajo namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		activationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_activation_attempts_total",
			Help:      "Intentos de activación y validación de licencias.",
		}, []string{"key_type", "result", "code"}),

		walletOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_operations_total",
			Help:      "Operaciones de billetera por tipo y código de resultado.",
		}, []string{"type", "code"}),

		walletAmount: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wallet_operation_amount",
			Help:      "Distribución de montos de operaciones de billetera exitosas.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"type"}),

		sweepScannedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_sweep_scanned_total",
			Help:      "Licencias revisadas por el barrido de estados.",
		}),

		sweepUpdatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "license_sweep_updated_total",
			Help:      "Licencias cuyo estado persistido cambió en el barrido.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),

		httpRequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveActivation cuenta un intento de activación/validación.
func (m *Metrics) ObserveActivation(keyType, result, code string) {
	m.activationsTotal.WithLabelValues(keyType, result, codeLabel(code)).Inc()
}

// ObserveWalletOperation cuenta la operación y, si fue exitosa, registra el monto.
func (m *Metrics) ObserveWalletOperation(txType, code string, amount decimal.Decimal) {
	m.walletOpsTotal.WithLabelValues(txType, codeLabel(code)).Inc()
	if code == "" {
		m.walletAmount.WithLabelValues(txType).Observe(amount.InexactFloat64())
	}
}

// ObserveSweep acumula el resultado de un barrido.
func (m *Metrics) ObserveSweep(scanned, updated int) {
	m.sweepScannedTotal.Add(float64(scanned))
	m.sweepUpdatedTotal.Add(float64(updated))
}

// ObserveHTTP registra una petición; route es la plantilla de la ruta, no la URL concreta.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func codeLabel(code string) string {
	if code == "" {
		return "OK"
	}
	return code
}
