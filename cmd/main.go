package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	addWaitlistEntryHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/add_waitlist_entry"
	convertWaitlistEntryHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/convert_waitlist_entry"
	createAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/create_appointment"
	deleteAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/delete_appointment"
	getAgendaHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_agenda"
	getSettingsHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_settings"
	getSyncStatusHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_sync_status"
	getTrashHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_trash"
	getWaitlistSuggestionsHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_waitlist_suggestions"
	listWaitlistHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/list_waitlist"
	moveAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/move_appointment"
	removeWaitlistEntryHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/remove_waitlist_entry"
	reorderWaitlistHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/reorder_waitlist"
	restoreAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/restore_appointment"
	setStatusHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/set_status"
	updateSettingsHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/update_settings"
	"github.com/m04kA/SMC-AgendaService/internal/api/middleware"
	"github.com/m04kA/SMC-AgendaService/internal/config"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	settingsRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/settings"
	syncQueueRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/syncqueue"
	waitlistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/service/connectivity"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
	settingsService "github.com/m04kA/SMC-AgendaService/internal/service/settings"
	"github.com/m04kA/SMC-AgendaService/internal/service/syncqueue"
	waitlistService "github.com/m04kA/SMC-AgendaService/internal/service/waitlist"
	convertWaitlistUC "github.com/m04kA/SMC-AgendaService/internal/usecase/convert_waitlist"
	purgeTrashUC "github.com/m04kA/SMC-AgendaService/internal/usecase/purge_trash"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/metrics"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
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

	log.Info("Starting SMC-AgendaService...")

	location, err := cfg.Pipeline.Location()
	if err != nil {
		log.Fatal("Invalid agenda timezone: %v", err)
	}

	// Метрики агенды пишутся всегда; без флага Enabled они не попадают в глобальный реестр
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	} else {
		metricsCollector = metrics.NewWithRegistry(prometheus.NewRegistry(), cfg.Metrics.ServiceName)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(seconds(cfg.Database.ConnMaxLifetime))

	// Недоступная при старте база не мешает запуску: мутации уйдут в очередь
	if err := db.Ping(); err != nil {
		log.Warn("Database is not reachable at startup, starting offline: %v", err)
	} else {
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}

	stopMetricsCh := make(chan struct{})
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db)
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Redis: очередь синхронизации и кеш настроек
	var redisClient redis.UniversalClient
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		log.Info("Redis configured at %s (queue prefix=%s)", cfg.Redis.Addr, cfg.Redis.QueuePrefix)
	} else {
		log.Warn("Redis address is empty: sync queue is kept in memory, settings are not cached")
	}

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)
	waitlistRepository := waitlistRepo.NewRepository(wrappedDB)

	var queueStore syncqueue.QueueStore = syncqueue.NewMemoryStore()
	if redisClient != nil {
		queueStore = syncQueueRepo.NewRepository(redisClient, cfg.Redis.QueuePrefix)
	}

	// Шина событий и публикация в Kafka
	bus := events.NewBus()
	var publisher *eventbus.Publisher
	if cfg.Kafka.Enabled {
		writer, err := eventbus.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal("Failed to configure kafka writer: %v", err)
		}
		publisher = eventbus.NewPublisher(writer, eventbus.Config{
			BufferSize:   cfg.Kafka.BufferSize,
			WriteTimeout: seconds(cfg.Kafka.WriteTimeout),
			Location:     location,
		}, log)
		bus.Subscribe(publisher)
		log.Info("Kafka publisher enabled (brokers=%s, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Инициализируем сервисы
	monitor := connectivity.NewMonitor(wrappedDB, log, connectivity.Config{
		Interval:    seconds(cfg.Connectivity.Interval),
		PingTimeout: seconds(cfg.Connectivity.PingTimeout),
	})

	queue := syncqueue.NewQueue(syncqueue.Dependencies{
		Store:        queueStore,
		Mutations:    appointmentRepository,
		Connectivity: monitor,
		TxManager:    txMgr,
		Publisher:    bus,
		Metrics:      metricsCollector,
		Logger:       log,
	}, syncqueue.Config{
		PersistTimeout: seconds(cfg.Pipeline.PersistTimeout),
		ItemsPerSecond: cfg.SyncQueue.ItemsPerSecond,
	})

	settingsSvc := settingsService.NewService(settingsRepository, redisClient, seconds(cfg.Redis.SettingsCacheTTL), log)
	waitlistSvc := waitlistService.NewService(waitlistRepository, appointmentRepository, txMgr, nil, log)

	index := schedule.NewIndex(location)
	agenda := pipeline.NewService(pipeline.Dependencies{
		Store:        appointmentRepository,
		Index:        index,
		Resolver:     conflict.NewResolver(index),
		Catalog:      catalogRepository,
		Settings:     settingsSvc,
		Queue:        queue,
		Connectivity: monitor,
		Advisor:      waitlistSvc,
		Publisher:    bus,
		Metrics:      metricsCollector,
		TxManager:    txMgr,
		Logger:       log,
	}, pipeline.Config{
		PersistTimeout: seconds(cfg.Pipeline.PersistTimeout),
	})

	// Инициализируем use cases
	convertWaitlistUseCase := convertWaitlistUC.NewUseCase(agenda, waitlistRepository, log)
	purgeTrashUseCase := purgeTrashUC.NewUseCase(appointmentRepository, log)

	// Фоновые процессы
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	monitor.OnReconnect(queue.OnReconnect)
	go monitor.Run(bgCtx)
	go purgeTrashUseCase.Run(bgCtx, seconds(cfg.Trash.PurgeInterval))
	go queue.Run(bgCtx, seconds(cfg.SyncQueue.DrainInterval))
	if publisher != nil {
		go publisher.Run(bgCtx)
	}

	// Мутации, оставшиеся в очереди с прошлого запуска
	if pending, err := queue.Len(bgCtx); err != nil {
		log.Warn("Failed to read sync queue length at startup: %v", err)
	} else if pending > 0 {
		log.Info("Sync queue holds %d mutation(s) from a previous run, draining", pending)
		queue.OnReconnect(bgCtx)
	}

	// Инициализируем handlers
	getAgenda := getAgendaHandler.NewHandler(agenda, location, log)
	createAppointment := createAppointmentHandler.NewHandler(agenda, log)
	moveAppointment := moveAppointmentHandler.NewHandler(agenda, log)
	setStatus := setStatusHandler.NewHandler(agenda, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(agenda, log)
	restoreAppointment := restoreAppointmentHandler.NewHandler(agenda, log)
	getTrash := getTrashHandler.NewHandler(agenda, log)
	getSettings := getSettingsHandler.NewHandler(settingsSvc, log)
	updateSettings := updateSettingsHandler.NewHandler(settingsSvc, log)
	listWaitlist := listWaitlistHandler.NewHandler(waitlistSvc, log)
	addWaitlistEntry := addWaitlistEntryHandler.NewHandler(waitlistSvc, location, log)
	removeWaitlistEntry := removeWaitlistEntryHandler.NewHandler(waitlistSvc, log)
	reorderWaitlist := reorderWaitlistHandler.NewHandler(waitlistSvc, log)
	getWaitlistSuggestions := getWaitlistSuggestionsHandler.NewHandler(waitlistSvc, log)
	convertWaitlistEntry := convertWaitlistEntryHandler.NewHandler(convertWaitlistUseCase, log)
	getSyncStatus := getSyncStatusHandler.NewHandler(monitor, queue, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		// Metrics endpoint (публичный, без заголовка компании)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix, все маршруты требуют X-Company-ID
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Tenant)

	// --- Агенда ---
	api.HandleFunc("/agenda", getAgenda.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}/move", moveAppointment.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/appointments/{id}/status", setStatus.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/appointments/{id}", deleteAppointment.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/appointments/{id}/restore", restoreAppointment.Handle).Methods(http.MethodPost)
	api.HandleFunc("/trash", getTrash.Handle).Methods(http.MethodGet)

	// --- Настройки ---
	api.HandleFunc("/settings", getSettings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/settings", updateSettings.Handle).Methods(http.MethodPut)

	// --- Лист ожидания ---
	// Статические пути регистрируются раньше /waitlist/{id}
	api.HandleFunc("/waitlist", listWaitlist.Handle).Methods(http.MethodGet)
	api.HandleFunc("/waitlist", addWaitlistEntry.Handle).Methods(http.MethodPost)
	api.HandleFunc("/waitlist/order", reorderWaitlist.Handle).Methods(http.MethodPut)
	api.HandleFunc("/waitlist/suggestions", getWaitlistSuggestions.Handle).Methods(http.MethodGet)
	api.HandleFunc("/waitlist/{id}/convert", convertWaitlistEntry.Handle).Methods(http.MethodPost)
	api.HandleFunc("/waitlist/{id}", removeWaitlistEntry.Handle).Methods(http.MethodDelete)

	// --- Синхронизация ---
	api.HandleFunc("/sync/status", getSyncStatus.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  seconds(cfg.Server.ReadTimeout),
		WriteTimeout: seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  seconds(cfg.Server.IdleTimeout),
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые процессы: монитор, очистку корзины, проходы очереди, публикацию
	stopBackground()
	queue.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close kafka writer: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
