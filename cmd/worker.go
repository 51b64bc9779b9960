package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	leavePostgres "github.com/navgurukul/leave-management/internal/leave/postgres"
	"github.com/navgurukul/leave-management/internal/mailer"
	"github.com/navgurukul/leave-management/internal/reconciler"
	userPostgres "github.com/navgurukul/leave-management/internal/user/postgres"
	"github.com/navgurukul/leave-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage background workers: mail delivery and profile reconciliation.`,
}

// Mailer worker command
var mailerWorkerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Start mail delivery worker pool",
	Long:  `Start the mail delivery worker pool for processing queued notification emails`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailerWorker()
	},
}

// Reconcile worker command
var reconcileWorkerCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the profile reconciliation sweep",
	Long:  `Recompute derived leave counters and role flags for every user profile on an interval`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

var (
	maxWorkers    int
	jobQueueSize  int
	mailAPIURL    string
	mailAPIKey    string
	sweepInterval time.Duration
	sweepOnce     bool
)

func startMailerWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	mailConfig := mailer.Config{
		APIURL:       getStringFlag(mailAPIURL, config.Mail.APIURL),
		APIKey:       getStringFlag(mailAPIKey, config.Mail.APIKey),
		FromAddress:  config.Mail.FromAddress,
		SendTimeout:  config.Mail.SendTimeout,
		MaxWorkers:   getIntFlag(maxWorkers, config.Mail.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, config.Mail.JobQueueSize),
	}

	lg.Info("starting mailer worker",
		"max_workers", mailConfig.MaxWorkers,
		"job_queue_size", mailConfig.JobQueueSize,
		"api_url", mailConfig.APIURL)

	client := mailer.NewClient(mailConfig, lg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("mailer worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down mailer worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("mailer worker pool shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func startReconcileWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	rec := reconciler.New(
		userPostgres.NewUserRepository(gormDB),
		leavePostgres.NewLeaveRepository(gormDB),
		lg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sweepOnce {
		corrected, err := rec.ReconcileAll(ctx)
		if err != nil {
			lg.Error("reconciliation sweep finished with errors", "error", err, "corrected", corrected)
			os.Exit(1)
		}
		lg.Info("reconciliation sweep complete", "corrected", corrected)
		return
	}

	interval := sweepInterval
	if interval <= 0 {
		interval = config.Reconciler.Interval
	}

	go rec.Run(ctx, interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("reconcile worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down reconcile worker", "signal", sig)
	cancel()
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailerWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	mailerWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	mailerWorkerCmd.Flags().StringVar(&mailAPIURL, "api-url", "", "Mail API URL (overrides config)")
	mailerWorkerCmd.Flags().StringVar(&mailAPIKey, "api-key", "", "Mail API key (overrides config)")

	reconcileWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "Sweep interval (overrides config)")
	reconcileWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(mailerWorkerCmd)
	workerCmd.AddCommand(reconcileWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
