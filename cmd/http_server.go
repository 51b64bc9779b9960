package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/navgurukul/leave-management/internal"
	"github.com/navgurukul/leave-management/internal/auth"
	authPostgres "github.com/navgurukul/leave-management/internal/auth/postgres"
	"github.com/navgurukul/leave-management/internal/core/events"
	"github.com/navgurukul/leave-management/internal/leave"
	leavePostgres "github.com/navgurukul/leave-management/internal/leave/postgres"
	"github.com/navgurukul/leave-management/internal/mailer"
	"github.com/navgurukul/leave-management/internal/notification"
	"github.com/navgurukul/leave-management/internal/reconciler"
	"github.com/navgurukul/leave-management/internal/transport/rest"
	"github.com/navgurukul/leave-management/internal/user"
	userPostgres "github.com/navgurukul/leave-management/internal/user/postgres"
	"github.com/navgurukul/leave-management/pkg/logger"
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
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	MailClient *mailer.Client
	Reconciler *reconciler.Reconciler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	// Background reconciliation sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go deps.Reconciler.Run(sweepCtx, deps.Config.Reconciler.Interval)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

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
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		stopSweep()
		deps.MailClient.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		stopSweep()
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	if config.Security.AccessTokenDuration > 0 {
		tokenGen.AccessTokenTTL = config.Security.AccessTokenDuration
	}
	if config.Security.RefreshTokenDuration > 0 {
		tokenGen.RefreshTokenTTL = config.Security.RefreshTokenDuration
	}
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, lg)
	authHandler := auth.NewHandler(authService)
	roleAuth := auth.NewRoleAuthorization(lg)

	// Users
	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, lg)
	userHandler := user.NewHandler(userService)

	// Leaves
	leaveRepo := leavePostgres.NewLeaveRepository(gormDB)
	leaveService := leave.NewService(leaveRepo, eventBus, lg)
	leaveHandler := leave.NewHandler(leaveService)

	// Notifications
	mailClient := mailer.NewClient(mailer.Config{
		APIURL:       config.Mail.APIURL,
		APIKey:       config.Mail.APIKey,
		FromAddress:  config.Mail.FromAddress,
		SendTimeout:  config.Mail.SendTimeout,
		MaxWorkers:   config.Mail.MaxWorkers,
		JobQueueSize: config.Mail.JobQueueSize,
	}, lg)
	composer := mailer.NewComposer(mailer.ComposerConfig{
		APIURL:  config.TextGen.APIURL,
		APIKey:  config.TextGen.APIKey,
		Model:   config.TextGen.Model,
		Timeout: config.TextGen.Timeout,
	}, lg)
	dispatcher := notification.NewDispatcher(userRepo, mailClient, composer, lg)
	notification.NewEventHandler(dispatcher, lg).RegisterEventHandlers(eventBus)

	// Reconciliation
	rec := reconciler.New(userRepo, leaveRepo, lg)
	rec.RegisterEventHandlers(eventBus)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authHandler, roleAuth, userHandler, leaveHandler, parseOrigins(config.Server.AllowedOrigins), lg)

	return &Dependencies{
		Config:     config,
		DB:         db,
		GormDB:     gormDB,
		Router:     router,
		Logger:     lg,
		MailClient: mailClient,
		Reconciler: rec,
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

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func parseOrigins(origins string) []string {
	if origins == "" || origins == "*" {
		return nil
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
