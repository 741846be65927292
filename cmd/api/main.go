package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk-backend-go/internal/config"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
	appHTTP "github.com/bizdesk/bizdesk-backend-go/internal/handler/http"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/cache"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/cron"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/database"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/jwt"
	"github.com/bizdesk/bizdesk-backend-go/internal/repository/postgresql"
	attendanceService "github.com/bizdesk/bizdesk-backend-go/internal/service/attendance"
	payrollService "github.com/bizdesk/bizdesk-backend-go/internal/service/payroll"
	timingService "github.com/bizdesk/bizdesk-backend-go/internal/service/timing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := newLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone:", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), int32(cfg.Database.MaxConns), int32(cfg.Database.MinConns))
	if err != nil {
		log.Fatal("Error connecting to database:", err)
	}
	defer db.Close()

	// Cache is optional: reads fall through to the database when Redis is
	// unreachable.
	var c *cache.Cache
	c, err = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
	if err != nil {
		logger.Warn("Redis unavailable, policy cache disabled", "error", err)
		c = nil
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	timingPolicyRepo := postgresql.NewTimingPolicyRepository(db)
	officeLocationRepo := postgresql.NewOfficeLocationRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db, loc)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	timingSvc := timingService.NewTimingService(timingPolicyRepo, officeLocationRepo, c, logger)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, timingSvc, loc, logger)
	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		employeeRepo,
		timingSvc,
		payroll.Settings{
			EPFRate:      decimal.NewFromFloat(cfg.Payroll.EPFRate),
			EPFCeiling:   decimal.NewFromFloat(cfg.Payroll.EPFCeiling),
			ESIRate:      decimal.NewFromFloat(cfg.Payroll.ESIRate),
			ESIThreshold: decimal.NewFromFloat(cfg.Payroll.ESIThreshold),
		},
		decimal.NewFromFloat(cfg.Payroll.OvertimeRate),
		loc,
		logger,
	)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("auto-checkout-sweep", cfg.Cron.SweepInterval, func(ctx context.Context) error {
		_, err := attendanceSvc.RunAutoCheckoutSweep(ctx, time.Now().In(loc))
		return err
	})
	scheduler.AddJob("mark-absentees", time.Hour, func(ctx context.Context) error {
		_, err := attendanceSvc.MarkAbsentees(ctx, time.Now().In(loc))
		return err
	})
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	timingHandler := appHTTP.NewTimingHandler(timingSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(jwtService, attendanceHandler, timingHandler, payrollHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
