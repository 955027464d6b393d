package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gojsm/adapters/db/postgres/migrations"
	"gojsm/adapters/postgres"
	"gojsm/app"
	"gojsm/internal"
	"gojsm/internal/api"
	"gojsm/internal/config"
	"gojsm/internal/engine"
	apperrors "gojsm/internal/errors"
	"gojsm/ports"
	"gojsm/ui"
)

// initDatabase connects to the configured database and applies pending
// migrations.
func initDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *internal.Logger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to database", err)
	}
	if cfg.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	applied, err := migrations.NewMigrator(db, logger).Up(ctx)
	if err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "database migration failed")
	}
	if len(applied) > 0 {
		logger.Info("applied migrations %v", applied)
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo ports.RunRepository
	if appConfig.Database.Enabled() {
		db, err := initDatabase(ctx, appConfig.Database, logger)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
		logger.Info("run storage enabled (%s)", appConfig.Database.Driver)
	} else {
		logger.Warn("DATABASE_URL not set, runs will not be stored")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := app.NewJSMService(app.ServiceDeps{
		Repo:    repo,
		Metrics: engine.NewMetrics(reg),
		Logger:  logger,
	})

	viewer, err := ui.NewApp(svc, ui.Config{BasePath: "/ui"}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Handler:  api.NewHandler(svc, appConfig.JSM, logger),
		Gatherer: reg,
		UI:       viewer,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gojsm server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
