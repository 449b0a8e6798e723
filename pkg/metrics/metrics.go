package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus коллекторов сервиса.
// Все методы безопасны для вызова на nil получателе: если метрики выключены, вызовы ничего не делают.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBOpenConns     *prometheus.GaugeVec
	DBInUseConns    *prometheus.GaugeVec
	DBIdleConns     *prometheus.GaugeVec

	BookingsCreated    *prometheus.CounterVec
	BookingConflicts   *prometheus.CounterVec
	BookingTransitions *prometheus.CounterVec
	NotifierFailures   *prometheus.CounterVec
	CacheRequests      *prometheus.CounterVec

	serviceName string
}

// New создает и регистрирует коллекторы в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает коллекторы и регистрирует их в переданном registerer.
// Повторная регистрация (например, в тестах) переиспользует уже зарегистрированные коллекторы.
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{serviceName: serviceName}

	m.HTTPRequestsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"service", "method", "path", "status"}))

	m.HTTPRequestDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "path"}))

	m.DBQueryDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Database query duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "operation"}))

	m.DBQueryErrors = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "db_query_errors_total",
		Help: "Total number of failed database queries",
	}, []string{"service", "operation"}))

	m.DBOpenConns = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Number of established connections",
	}, []string{"service"}))

	m.DBInUseConns = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "db_in_use_connections",
		Help: "Number of connections currently in use",
	}, []string{"service"}))

	m.DBIdleConns = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "db_idle_connections",
		Help: "Number of idle connections",
	}, []string{"service"}))

	m.BookingsCreated = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_bookings_created_total",
		Help: "Total number of created bookings",
	}, []string{"service"}))

	m.BookingConflicts = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_booking_conflicts_total",
		Help: "Total number of rejected overlapping booking attempts",
	}, []string{"service"}))

	m.BookingTransitions = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_booking_transitions_total",
		Help: "Total number of applied booking transitions",
	}, []string{"service", "transition"}))

	m.NotifierFailures = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_notifier_failures_total",
		Help: "Total number of events that could not be delivered to the notifier",
	}, []string{"service"}))

	m.CacheRequests = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_cache_requests_total",
		Help: "Availability cache lookups by result",
	}, []string{"service", "result"}))

	return m
}

// register регистрирует коллектор или возвращает уже существующий
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает длительность и результат запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(m.serviceName, operation).Inc()
	}
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.DBOpenConns.WithLabelValues(m.serviceName).Set(float64(open))
	m.DBInUseConns.WithLabelValues(m.serviceName).Set(float64(inUse))
	m.DBIdleConns.WithLabelValues(m.serviceName).Set(float64(idle))
}

// IncBookingCreated увеличивает счетчик созданных бронирований
func (m *Metrics) IncBookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(m.serviceName).Inc()
}

// IncBookingConflict увеличивает счетчик отклоненных из-за пересечения бронирований
func (m *Metrics) IncBookingConflict() {
	if m == nil {
		return
	}
	m.BookingConflicts.WithLabelValues(m.serviceName).Inc()
}

// IncTransition увеличивает счетчик переходов состояния
func (m *Metrics) IncTransition(transition string) {
	if m == nil {
		return
	}
	m.BookingTransitions.WithLabelValues(m.serviceName, transition).Inc()
}

// IncNotifierFailure увеличивает счетчик недоставленных событий
func (m *Metrics) IncNotifierFailure() {
	if m == nil {
		return
	}
	m.NotifierFailures.WithLabelValues(m.serviceName).Inc()
}

// IncCacheResult учитывает результат обращения к кэшу (hit, miss, error, skip)
func (m *Metrics) IncCacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(m.serviceName, result).Inc()
}
