package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/contractor-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/contractor-backend-go/internal/repository/postgresql"
	businessService "github.com/cmlabs-hris/contractor-backend-go/internal/service/business"
	payrollService "github.com/cmlabs-hris/contractor-backend-go/internal/service/payroll"
	subcontractorService "github.com/cmlabs-hris/contractor-backend-go/internal/service/subcontractor"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return eris.Wrap(err, "configuration validation failed")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := zap.L()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		publisher, err := newPublisher(ctx)
		if err != nil {
			return err
		}

		// Repositories
		payrollRepo := postgresql.NewPayrollRepository(db)
		workerRepo := postgresql.NewWorkerRepository(db)
		workLogRepo := postgresql.NewWorkLogRepository(db)
		projectRepo := postgresql.NewProjectRepository(db)
		settingsRepo := postgresql.NewSettingsRepository(db)
		assignmentRepo := postgresql.NewAssignmentRepository(db)

		// Services
		payrollSvc := payrollService.NewPayrollService(payrollRepo, workerRepo, workLogRepo, projectRepo, settingsRepo, publisher, logger)
		settingsSvc := businessService.NewSettingsService(settingsRepo)
		settlementSvc := subcontractorService.NewSettlementService(assignmentRepo, settingsRepo, logger)

		// Jobs
		scheduler := cron.NewScheduler(logger)
		cron.NewPayrollJobs(payrollSvc, cfg.Payroll.StaleRunAfter).RegisterJobs(scheduler, cfg.Payroll.ReaperInterval)
		scheduler.Start()
		defer scheduler.Stop()

		JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
		router := appHTTP.NewRouter(appHTTP.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Env:            cfg.App.Env,
			Version:        cfg.App.Version,
			LogLevel:       slogLevel(cfg.Log.Level),
		}, JWTService, appHTTP.Handlers{
			Payroll:       appHTTP.NewPayrollHandler(payrollSvc),
			Settings:      appHTTP.NewSettingsHandler(settingsSvc),
			Subcontractor: appHTTP.NewSubcontractorHandler(settlementSvc),
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.App.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown failed", zap.Error(err))
			}
		}()

		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server error")
		}
		return nil
	},
}

func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "connect to database")
	}
	return db, nil
}

func newPublisher(ctx context.Context) (payroll.EventPublisher, error) {
	if cfg.Events.QueueURL == "" {
		zap.L().Info("event queue not configured, run events are dropped")
		return events.NoopPublisher{}, nil
	}

	client, err := events.NewSQSClient(ctx, cfg.Events.Region, cfg.Events.Endpoint)
	if err != nil {
		return nil, err
	}
	return events.NewSQSPublisher(client, cfg.Events.QueueURL), nil
}

func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
