package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	apihttp "clinic-analytics/internal/api/http"
	"clinic-analytics/internal/audit"
	"clinic-analytics/internal/config"
	exportapp "clinic-analytics/internal/exports/application"
	exports "clinic-analytics/internal/exports/domain"
	exportmemory "clinic-analytics/internal/exports/infrastructure/memory"
	exportredis "clinic-analytics/internal/exports/infrastructure/redis"
	exporthttp "clinic-analytics/internal/exports/interfaces/http"
	factapp "clinic-analytics/internal/facts/application"
	facts "clinic-analytics/internal/facts/domain"
	factmemory "clinic-analytics/internal/facts/infrastructure/memory"
	factpostgres "clinic-analytics/internal/facts/infrastructure/postgres"
	facthttp "clinic-analytics/internal/facts/interfaces/http"
	kpiapp "clinic-analytics/internal/kpi/application"
	kpi "clinic-analytics/internal/kpi/domain"
	kpihttp "clinic-analytics/internal/kpi/interfaces/http"
	"clinic-analytics/internal/observability/logging"
	"clinic-analytics/internal/observability/metrics"
	rcaapp "clinic-analytics/internal/rca/application"
	rca "clinic-analytics/internal/rca/domain"
	rcamemory "clinic-analytics/internal/rca/infrastructure/memory"
	rcapostgres "clinic-analytics/internal/rca/infrastructure/postgres"
	rcahttp "clinic-analytics/internal/rca/interfaces/http"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables, err := kpi.LoadTables(cfg.ThresholdsFile)
	if err != nil {
		logger.Fatal("threshold tables error", zap.String("path", cfg.ThresholdsFile), zap.Error(err))
	}

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage error", zap.Error(err))
	}
	defer stores.close()
	metrics.Init(stores.db, logger)

	snapshotService, err := kpiapp.NewService(stores.facts, tables, kpiapp.WithLogger(logger))
	if err != nil {
		logger.Fatal("snapshot service error", zap.Error(err))
	}
	ingestService, err := factapp.NewService(stores.facts, logger)
	if err != nil {
		logger.Fatal("ingest service error", zap.Error(err))
	}
	rcaService, err := rcaapp.NewService(stores.rca, rcaapp.WithLogger(logger))
	if err != nil {
		logger.Fatal("rca service error", zap.Error(err))
	}
	exportService, err := exportapp.NewService(
		exports.NewCadenceGate(exports.DefaultPolicies()),
		stores.counter,
		snapshotService,
		exportapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("export service error", zap.Error(err))
	}

	factHandler, err := facthttp.NewHandler(ingestService, stores.audit)
	if err != nil {
		logger.Fatal("facts handler error", zap.Error(err))
	}
	snapshotHandler, err := kpihttp.NewHandler(snapshotService)
	if err != nil {
		logger.Fatal("snapshot handler error", zap.Error(err))
	}
	rcaHandler, err := rcahttp.NewHandler(rcaService, stores.audit)
	if err != nil {
		logger.Fatal("rca handler error", zap.Error(err))
	}
	exportHandler, err := exporthttp.NewHandler(exportService, stores.audit)
	if err != nil {
		logger.Fatal("exports handler error", zap.Error(err))
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		Handlers:    []apihttp.Registrar{factHandler, snapshotHandler, rcaHandler, exportHandler},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}
}

type backends struct {
	db      *sql.DB
	facts   facts.Repository
	rca     rca.Repository
	audit   audit.Logger
	counter exports.Counter
	closers []func() error
}

func (s *backends) close() {
	for _, closer := range s.closers {
		_ = closer()
	}
}

// openStores picks durable backends when configured, in-memory otherwise.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	s := &backends{}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		s.db = db
		s.closers = append(s.closers, db.Close)
		s.facts = factpostgres.NewFactRepository(db)
		s.rca = rcapostgres.NewRCARepository(db)
		s.audit = audit.NewRepository(db)
		logger.Info("using postgres stores")
	} else {
		s.facts = factmemory.NewFactRepository()
		s.rca = rcamemory.NewRCARepository()
		s.audit = audit.NewMemoryLogger()
		logger.Warn("database_url not set, using in-memory stores")
	}

	if cfg.RedisAddr != "" {
		counter, err := exportredis.NewCounter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			s.close()
			return nil, err
		}
		s.counter = counter
		s.closers = append(s.closers, counter.Close)
		logger.Info("using redis export counter", zap.String("addr", cfg.RedisAddr))
	} else {
		s.counter = exportmemory.NewCounter()
		logger.Warn("redis_addr not set, using in-memory export counter")
	}
	return s, nil
}
