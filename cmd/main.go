package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	getAvailabilitySummaryHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_availability_summary"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getDayAvailabilityHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_day_availability"
	getProviderBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_provider_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_user_bookings"
	transitionBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/transition_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	availabilityCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	catalogServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notifier"
	userServiceClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/lifecycle"
	"github.com/m04kA/SMC-SchedulingService/internal/service/overlap"
	"github.com/m04kA/SMC-SchedulingService/internal/service/scheduling"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	transitionBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/transition_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/worker/reminder"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/tracing"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// bookingStore хранилище бронирований: PostgreSQL или in-memory
type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByProvider(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	ListByUser(ctx context.Context, filter domain.UserBookingsFilter) ([]*domain.Booking, error)
	ListStalePending(ctx context.Context, filter domain.StalePendingFilter) ([]*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, from domain.BookingStatus, to domain.State, note *string) error
	LockProvider(ctx context.Context, providerID int64) error
}

type txManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// eventNotifier получатель событий бронирования с освобождением ресурсов
type eventNotifier interface {
	Emit(ctx context.Context, event domain.BookingEvent) error
	Close() error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")

	hours, err := cfg.BusinessHours()
	if err != nil {
		log.Fatal("Invalid schedule configuration: %v", err)
	}
	log.Info("Business hours %02d:00-%02d:00 (%s)", hours.OpenHour, hours.CloseHour, hours.Loc())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Трассировка (пропагаторы ставятся всегда, экспорт только если включен)
	shutdownTracing, err := tracing.Setup(rootCtx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to setup tracing: %v", err)
	}

	// Инициализируем метрики (если включены). nil коллектор безопасен для вызовов.
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище бронирований
	var (
		store bookingStore
		txMgr txManager
	)
	stopMetricsCh := make(chan struct{})

	switch cfg.Database.Driver {
	case config.DriverMemory:
		memoryRepo := bookingRepo.NewMemoryRepository(overlap.IsBlocking)
		store = memoryRepo
		txMgr = bookingRepo.NewMemoryTxManager(memoryRepo)
		log.Warn("Using in-memory booking storage, data is lost on restart")

	default:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.PingContext(rootCtx); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		var wrappedDB *dbmetrics.DB
		if metricsCollector != nil {
			wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
			log.Info("Database metrics collection started")
		} else {
			wrappedDB = dbmetrics.Wrap(db, nil)
		}

		store = bookingRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	}

	// Инициализируем интеграционных клиентов
	userClient := userServiceClient.NewClient(cfg.UserService.URL, cfg.UserService.TimeoutDuration(), log)
	catalogClient := catalogServiceClient.NewClient(cfg.CatalogService.URL, cfg.CatalogService.TimeoutDuration(), log)
	log.Info("Integration clients initialized (UserService=%s, CatalogService=%s)",
		cfg.UserService.URL, cfg.CatalogService.URL)

	// Получатель событий: kafka, если заданы брокеры, иначе лог
	var events eventNotifier
	if cfg.Kafka.Enabled() {
		writer := notifier.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.WriteTimeoutDuration())
		events = notifier.NewKafkaNotifier(writer, cfg.Kafka.Topic, log)
		log.Info("Kafka notifier enabled (brokers=%s, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		events = notifier.NewLogNotifier(log)
		log.Info("Kafka brokers not configured, booking events are logged only")
	}
	defer events.Close()

	// Кэш сводки доступности. Интерфейс остается nil, если Redis выключен.
	var summaryCache scheduling.SummaryCache
	if cfg.Redis.Enabled {
		redisClient := availabilityCache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		defer redisClient.Close()

		cache := availabilityCache.NewSummaryCache(redisClient, cfg.Redis.TTLDuration(), hours.Loc())
		if err := cache.Ping(rootCtx); err != nil {
			log.Warn("Redis is unavailable, summary cache disabled: %v", err)
		} else {
			summaryCache = cache
			log.Info("Availability summary cache enabled (addr=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TTLDuration())
		}
	}

	// Сервисы ядра
	validator := overlap.NewValidator(store)
	calculator := availability.NewCalculator(store, hours, cfg.Schedule.MaxSummaryDays)
	bookingQueries := bookingsService.NewService(store, hours, cfg.Schedule.MaxCalendarDays, log)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		store,
		validator,
		catalogClient,
		events,
		metricsCollector,
		txMgr,
		log,
	)
	transitionBookingUseCase := transitionBookingUC.NewUseCase(
		store,
		userClient,
		events,
		metricsCollector,
		txMgr,
		log,
	)

	schedulingSvc := scheduling.NewService(
		createBookingUseCase,
		transitionBookingUseCase,
		calculator,
		bookingQueries,
		catalogClient,
		summaryCache,
		metricsCollector,
		log,
	)

	// Напоминания о зависших pending бронированиях
	var reminderWorker *reminder.Worker
	if cfg.Reminder.Enabled {
		reminderWorker = reminder.NewWorker(reminder.Config{
			Schedule:   cfg.Reminder.Schedule,
			StaleAfter: cfg.Reminder.StaleAfterDuration(),
			BatchSize:  cfg.Reminder.BatchSize,
			Location:   hours.Loc(),
		}, store, events, log)
		if err := reminderWorker.Start(rootCtx); err != nil {
			log.Fatal("Failed to start reminder worker: %v", err)
		}
		log.Info("Reminder worker started (schedule=%s)", cfg.Reminder.Schedule)
	}

	// Инициализируем handlers
	getDayAvailability := getDayAvailabilityHandler.NewHandler(schedulingSvc, hours.Loc(), log)
	getAvailabilitySummary := getAvailabilitySummaryHandler.NewHandler(schedulingSvc, hours.Loc(), log)
	createBooking := createBookingHandler.NewHandler(schedulingSvc, log)
	getBooking := getBookingHandler.NewHandler(schedulingSvc, log)
	acceptBooking := transitionBookingHandler.NewHandler(schedulingSvc, lifecycle.ActionAccept, log)
	rejectBooking := transitionBookingHandler.NewHandler(schedulingSvc, lifecycle.ActionReject, log)
	cancelBooking := transitionBookingHandler.NewHandler(schedulingSvc, lifecycle.ActionCancel, log)
	completeBooking := transitionBookingHandler.NewHandler(schedulingSvc, lifecycle.ActionComplete, log)
	markNoShow := transitionBookingHandler.NewHandler(schedulingSvc, lifecycle.ActionNoShow, log)
	getUserBookings := getUserBookingsHandler.NewHandler(schedulingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(schedulingSvc, hours.Loc(), log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	if cfg.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
		log.Info("Rate limit enabled (rps=%.1f, burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Слоты услуги на дату
	api.HandleFunc("/services/{serviceId}/availability", getDayAvailability.Handle).Methods(http.MethodGet)

	// Полностью занятые даты за период (календарь на месяц)
	api.HandleFunc("/services/{serviceId}/availability-summary", getAvailabilitySummary.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// --- Жизненный цикл ---
	protected.HandleFunc("/bookings/{bookingId}/accept", acceptBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reject", rejectBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", markNoShow.Handle).Methods(http.MethodPatch)

	// --- История и календарь ---
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Metrics.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-rootCtx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if reminderWorker != nil {
		reminderWorker.Stop()
		log.Info("Reminder worker stopped")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}
