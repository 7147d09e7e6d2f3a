package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	auditpostgres "github.com/frahmantamala/report-management/internal/audit/postgres"
	"github.com/frahmantamala/report-management/internal/auth"
	authpostgres "github.com/frahmantamala/report-management/internal/auth/postgres"
	"github.com/frahmantamala/report-management/internal/core/events"
	"github.com/frahmantamala/report-management/internal/dashboard"
	dashboardpostgres "github.com/frahmantamala/report-management/internal/dashboard/postgres"
	"github.com/frahmantamala/report-management/internal/department"
	departmentpostgres "github.com/frahmantamala/report-management/internal/department/postgres"
	"github.com/frahmantamala/report-management/internal/filestore"
	"github.com/frahmantamala/report-management/internal/notification"
	notificationpostgres "github.com/frahmantamala/report-management/internal/notification/postgres"
	"github.com/frahmantamala/report-management/internal/report"
	reportpostgres "github.com/frahmantamala/report-management/internal/report/postgres"
	"github.com/frahmantamala/report-management/internal/settings"
	settingspostgres "github.com/frahmantamala/report-management/internal/settings/postgres"
	"github.com/frahmantamala/report-management/internal/transport/rest"
	"github.com/frahmantamala/report-management/internal/user"
	userpostgres "github.com/frahmantamala/report-management/internal/user/postgres"
	"github.com/frahmantamala/report-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	files, err := filestore.New(config.Storage.UploadDir, config.Storage.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	queryTimeout := config.Database.QueryTimeout

	auditRepo := auditpostgres.NewAuditRepository(gormDB)
	auditService := audit.NewService(auditRepo, queryTimeout, log)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authpostgres.NewAuthRepository(gormDB)
	authService := auth.NewService(authRepo, tokens, auditService, config.Security.BCryptCost, log)

	bus := events.NewBus(log)

	departmentRepo := departmentpostgres.NewRepository(gormDB)
	departmentService := department.NewService(departmentRepo, auditService, queryTimeout, log)

	notificationRepo := notificationpostgres.NewRepository(gormDB)
	notificationService := notification.NewService(notificationRepo, queryTimeout, log)
	dispatcher := notification.NewDispatcher(notificationRepo, departmentRepo, log)
	dispatcher.Register(bus)

	reportRepo := reportpostgres.NewReportRepository(gormDB)
	reportService := report.NewService(reportRepo, files, bus, auditService, queryTimeout, log)

	userRepo := userpostgres.NewRepository(gormDB)
	userService := user.NewService(userRepo, auditService, config.Security.BCryptCost, queryTimeout, log)

	dashboardRepo := dashboardpostgres.NewRepository(gormDB)
	dashboardService := dashboard.NewService(dashboardRepo, queryTimeout, log)

	settingsRepo := settingspostgres.NewRepository(gormDB)
	settingsService := settings.NewService(settingsRepo, auditService, queryTimeout, log)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:         auth.NewHandler(authService),
			Report:       report.NewHandler(reportService, config.Storage.MaxUploadBytes),
			Audit:        audit.NewHandler(auditService),
			Notification: notification.NewHandler(notificationService),
			Department:   department.NewHandler(departmentService),
			User:         user.NewHandler(userService),
			Dashboard:    dashboard.NewHandler(dashboardService),
			Settings:     settings.NewHandler(settingsService),
		},
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pgx connection pool so both
// share one set of pool limits.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
