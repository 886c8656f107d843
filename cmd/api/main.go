package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/asistencia-app/attendance-service/internal/api/http"
	"github.com/asistencia-app/attendance-service/internal/api/http/handlers"
	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/observability"
	"github.com/asistencia-app/attendance-service/internal/persistence"
	"github.com/asistencia-app/attendance-service/internal/repository"
	"github.com/asistencia-app/attendance-service/internal/service"
	"github.com/asistencia-app/attendance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo       repository.UserRepository
		attendanceRepo repository.AttendanceRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
		attendanceRepo = repository.NewAttendanceRepository(pg.Pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
		attendanceRepo = repository.NewMemoryAttendanceRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	directoryService := service.NewDirectoryService(*cfg, service.DirectoryDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	ledgerService := service.NewLedgerService(*cfg, service.LedgerDependencies{
		AttendanceRepo: attendanceRepo,
		UserRepo:       userRepo,
		Dispatcher:     dispatcher,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Ledger:   ledgerService,
		Tokens:   tokens,
	})
	reportService := service.NewReportService(ledgerService, userRepo)

	created, err := directoryService.EnsureAdmin(ctx, cfg.Bootstrap)
	if err != nil {
		logger.Fatal("failed to bootstrap administrator", zap.Error(err))
	}
	if created {
		logger.Info("bootstrap administrator created", zap.String("cedula", cfg.Bootstrap.AdminNationalID))
	}

	var limiter httptransport.LoginLimiter
	if redis.Enabled() {
		limiter = httptransport.NewRedisLimiter(redis.Client, cfg.RateLimit.LoginPerMinute, time.Minute)
	} else {
		limiter = httptransport.NewMemoryLimiter(cfg.RateLimit.LoginPerMinute, time.Minute)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSAllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, auth.NewGate(auth.NewVerifier()), time.Now),
		Profile:        handlers.NewProfileHandler(directoryService, ledgerService, time.Now),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		Attendance:     handlers.NewAttendanceHandler(ledgerService, reportService, time.Now),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		LoginLimiter:   limiter,
		Metrics:        metrics.Handler(),
		Logger:         logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("attendance service started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("timezone", cfg.Attendance.Location.String()),
		zap.Bool("postgres", pg.Enabled()),
		zap.Bool("redis", redis.Enabled()))

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
