package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса
type Metrics struct {
	serviceName string

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	// Агенда
	ConflictOutcomes  *prometheus.CounterVec
	Rollbacks         *prometheus.CounterVec
	QueuedMutations   *prometheus.CounterVec
	SyncDropped       *prometheus.CounterVec
	SyncDrainDuration *prometheus.HistogramVec
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики в указанном реестре (используется в тестах)
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"service", "operation"}),

		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		ConflictOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_conflict_outcomes_total",
			Help: "Conflict resolver outcomes by kind",
		}, []string{"service", "outcome"}),

		Rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_rollbacks_total",
			Help: "Optimistic mutations rolled back after a persistence failure",
		}, []string{"service", "operation"}),

		QueuedMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_sync_queued_total",
			Help: "Mutations handed to the offline sync queue",
		}, []string{"service", "kind"}),

		SyncDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_sync_dropped_total",
			Help: "Queued mutations dropped after exceeding the retry ceiling",
		}, []string{"service", "kind"}),

		SyncDrainDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenda_sync_drain_duration_seconds",
			Help:    "Duration of a sync queue drain pass",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}
}

// ObserveHTTPRequest учитывает HTTP запрос по шаблону пути
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(d.Seconds())
}

// ObserveConflict учитывает исход проверки конфликтов
func (m *Metrics) ObserveConflict(outcome string) {
	m.ConflictOutcomes.WithLabelValues(m.serviceName, outcome).Inc()
}

// IncRollback учитывает откат оптимистичной мутации
func (m *Metrics) IncRollback(operation string) {
	m.Rollbacks.WithLabelValues(m.serviceName, operation).Inc()
}

// IncQueued учитывает мутацию, отправленную в очередь синхронизации
func (m *Metrics) IncQueued(kind string) {
	m.QueuedMutations.WithLabelValues(m.serviceName, kind).Inc()
}

// IncSyncDropped учитывает мутацию, удалённую из очереди после исчерпания попыток
func (m *Metrics) IncSyncDropped(kind string) {
	m.SyncDropped.WithLabelValues(m.serviceName, kind).Inc()
}

// ObserveDrain учитывает длительность прохода очереди синхронизации
func (m *Metrics) ObserveDrain(d time.Duration) {
	m.SyncDrainDuration.WithLabelValues(m.serviceName).Observe(d.Seconds())
}

// ObserveDBQuery учитывает длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, d time.Duration) {
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(d.Seconds())
}

// SetPoolStats обновляет метрики пула соединений
func (m *Metrics) SetPoolStats(stats sql.DBStats) {
	m.DBOpenConnections.WithLabelValues(m.serviceName).Set(float64(stats.OpenConnections))
	m.DBInUseConnections.WithLabelValues(m.serviceName).Set(float64(stats.InUse))
	m.DBIdleConnections.WithLabelValues(m.serviceName).Set(float64(stats.Idle))
	m.DBWaitCount.WithLabelValues(m.serviceName).Set(float64(stats.WaitCount))
}
