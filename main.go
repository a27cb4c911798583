package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	alarmapp "solarpark-cloud/internal/alarms/application"
	alarmhttp "solarpark-cloud/internal/alarms/interfaces/http"
	alarmnotify "solarpark-cloud/internal/alarms/notify"
	"solarpark-cloud/internal/audit"
	"solarpark-cloud/internal/auth"
	"solarpark-cloud/internal/eventing"
	registryapp "solarpark-cloud/internal/masterdata/application"
	masterdatarepo "solarpark-cloud/internal/masterdata/infrastructure/postgres"
	masterdatahttp "solarpark-cloud/internal/masterdata/interfaces/http"
	"solarpark-cloud/internal/observability/metrics"
	reportapp "solarpark-cloud/internal/reports/application"
	reportevents "solarpark-cloud/internal/reports/application/events"
	reportrepo "solarpark-cloud/internal/reports/infrastructure/postgres"
	reportrender "solarpark-cloud/internal/reports/interfaces"
	reporthttp "solarpark-cloud/internal/reports/interfaces/http"
	telemetryapp "solarpark-cloud/internal/telemetry/application"
	telemetrypostgres "solarpark-cloud/internal/telemetry/infrastructure/postgres"
	inverter "solarpark-cloud/internal/telemetry/interfaces/inverter"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)
	ownerChecker := auth.NewOwnerChecker(db)

	locationRepo := masterdatarepo.NewLocationRepository(db)
	deviceRepo := masterdatarepo.NewDeviceRepository(db)
	readingRepo := telemetrypostgres.NewReadingRepository(db)
	rawSampleRepo := telemetrypostgres.NewRawSampleRepository(db)

	bus := eventing.NewInMemoryEventBus()

	ingestService, err := telemetryapp.NewIngestService(readingRepo, rawSampleRepo, deviceRepo, locationRepo, bus, nil, logger)
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := inverter.NewIngestHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	registryService, err := registryapp.NewRegistryService(locationRepo, deviceRepo, readingRepo)
	if err != nil {
		logger.Fatalf("registry service error: %v", err)
	}
	registryHandler, err := masterdatahttp.NewHandler(registryService, readingRepo, auditRepo)
	if err != nil {
		logger.Fatalf("registry handler error: %v", err)
	}

	reportsCfg, err := reportapp.LoadConfig()
	if err != nil {
		logger.Fatalf("reports config error: %v", err)
	}
	builder, err := reportapp.NewBuilder(readingRepo)
	if err != nil {
		logger.Fatalf("report builder error: %v", err)
	}
	workbookWriter, err := reportrender.NewWorkbookWriter(reportsCfg.StorageRoot)
	if err != nil {
		logger.Fatalf("workbook writer error: %v", err)
	}
	reportRepository := reportrepo.NewReportRepository(db)
	orchestrator, err := reportapp.NewOrchestrator(reportRepository, locationRepo, builder, workbookWriter, bus, nil, logger, reportsCfg.ContinueOnError)
	if err != nil {
		logger.Fatalf("report orchestrator error: %v", err)
	}
	reportDispatcher, err := reportapp.NewDispatcher(orchestrator, reportsCfg.Workers, reportsCfg.QueueSize, reportsCfg.DispatchDelay, logger)
	if err != nil {
		logger.Fatalf("report dispatcher error: %v", err)
	}
	defer reportDispatcher.Close()
	reportService, err := reportapp.NewService(reportRepository, locationRepo, reportDispatcher, nil, reportsCfg.StorageRoot)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}
	reportHandler, err := reporthttp.NewHandler(reportService, auditRepo, reporthttp.WithOwnerChecker(ownerChecker))
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	alarmBroker := alarmhttp.NewSSEBroker()
	alarmTemplate, err := alarmnotify.NewTemplate(cfg.AlarmNotifyTemplate)
	if err != nil {
		logger.Fatalf("alarm template error: %v", err)
	}
	logNotifier, err := alarmnotify.NewLogNotifier(alarmTemplate, logger)
	if err != nil {
		logger.Fatalf("alarm notifier error: %v", err)
	}
	alarmRelay, err := alarmapp.NewRelay(alarmnotify.NewMultiNotifier(alarmBroker, logNotifier), logger)
	if err != nil {
		logger.Fatalf("alarm relay error: %v", err)
	}
	bus.SubscribeReadingDecoded(alarmRelay.HandleReadingDecoded)
	bus.SubscribeReportFinished(func(_ context.Context, event reportevents.ReportFinished) error {
		logger.Printf("report finished: id=%s owner=%s status=%s", event.ReportID, event.Owner, event.Status)
		return nil
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/inverter/telemetry", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/locations", registryHandler)
	mux.Handle("/api/v1/locations/", registryHandler)
	mux.Handle("/api/v1/devices", registryHandler)
	mux.Handle("/api/v1/devices/", registryHandler)
	mux.Handle("/api/v1/reports", reportHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/alarms/stream", alarmhttp.NewStreamHandler(alarmBroker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL         string
	HTTPAddr            string
	AlarmNotifyTemplate string
	JWTSecret           string
	IngestSecret        string
	IngestSkewSeconds   int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:         getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		AlarmNotifyTemplate: getenvDefault("ALARM_NOTIFY_TEMPLATE", ""),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:        getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds:   getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.IngestSecret == "" {
		log.Fatal("INGEST_HMAC_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush lets SSE responses pass through the status capture.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
