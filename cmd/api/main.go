package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/config"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	appHTTP "github.com/klinika-hris/attendance-backend-go/internal/handler/http"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/cache"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/database"
	"github.com/klinika-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/klinika-hris/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/klinika-hris/attendance-backend-go/internal/service/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/service/geofence"
	scheduleService "github.com/klinika-hris/attendance-backend-go/internal/service/schedule"
	toleranceService "github.com/klinika-hris/attendance-backend-go/internal/service/tolerance"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	// Redis opsional; tanpa REDIS_ADDR semua cache dan override jatuh ke
	// store in-memory (single-instance saja).
	var store cache.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			fmt.Println("Error connecting to redis:", err)
			return
		}
		store = cache.NewRedisStore(client, "attendance")
	} else {
		store = cache.NewMemoryStore()
	}

	userRepo := postgresql.NewUserRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	violationRepo := postgresql.NewViolationRepository(db)
	templateRepo := postgresql.NewShiftTemplateRepository(db)
	assignmentRepo := postgresql.NewScheduleAssignmentRepository(db)
	settingRepo := postgresql.NewToleranceSettingRepository(db)
	locationRepo := postgresql.NewWorkLocationRepository(db)

	toleranceResolver := toleranceService.NewResolver(settingRepo, locationRepo, store, cfg.Engine.ToleranceCacheTTL)
	geofenceValidator := geofence.NewValidator(locationRepo, toleranceResolver, cfg.Engine.MaxGPSAccuracyMeters, cfg.Engine.DefaultRadiusMeters)
	shiftResolver := scheduleService.NewResolver(
		assignmentRepo,
		templateRepo,
		attendanceRepo,
		locationRepo,
		toleranceResolver,
		userRepo,
		scheduleService.Config{
			MaxShiftsPerDay:        cfg.Engine.MaxShiftsPerDay,
			MinGapMinutes:          cfg.Engine.MinGapMinutes,
			MaxGapMinutes:          cfg.Engine.MaxGapMinutes,
			DefaultShiftTemplateID: cfg.Engine.DefaultShiftTemplateID,
			Production:             cfg.IsProduction(),
		},
	)
	engine := attendanceService.NewEngine(
		attendanceRepo,
		violationRepo,
		userRepo,
		assignmentRepo,
		shiftResolver,
		toleranceResolver,
		geofenceValidator,
		attendanceService.Settings{OvertimeAfterShifts: cfg.Engine.OvertimeAfterShifts},
		func(ctx context.Context, fn func(ctx context.Context) error) error {
			return postgresql.WithTransaction(ctx, db, fn)
		},
	)
	sweeper := attendanceService.NewSweeper(attendanceRepo, violationRepo, userRepo, toleranceResolver)

	if err := seedGlobalTolerance(context.Background(), settingRepo, cfg.Engine); err != nil {
		fmt.Println("Error seeding global tolerance setting:", err)
		return
	}

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(sweeper).RegisterJobs(scheduler, cfg.Engine.SweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceHandler := appHTTP.NewAttendanceHandler(engine, attendanceRepo)
	scheduleHandler := appHTTP.NewScheduleHandler(shiftResolver)
	toleranceHandler := appHTTP.NewToleranceHandler(toleranceResolver, settingRepo, userRepo)

	router := appHTTP.NewRouter(jwtService, attendanceHandler, scheduleHandler, toleranceHandler, cfg.App.Env)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}

// seedGlobalTolerance installs the configured fallback window as a
// global setting on first boot. Never touches an existing row, so admin
// edits survive restarts.
func seedGlobalTolerance(ctx context.Context, repo tolerance.ToleranceSettingRepository, eng config.EngineConfig) error {
	existing, err := repo.GetActiveByScope(ctx, tolerance.ScopeGlobal, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	_, err = repo.Upsert(ctx, tolerance.ToleranceSetting{
		Scope:                tolerance.ScopeGlobal,
		Priority:             100,
		IsActive:             true,
		CheckinEarlyMinutes:  eng.CheckinToleranceEarly,
		CheckinLateMinutes:   eng.CheckinToleranceLate,
		CheckoutEarlyMinutes: eng.CheckoutToleranceEarly,
		CheckoutLateMinutes:  eng.CheckoutToleranceLate,
		AllowEarlyCheckin:    true,
		AllowLateCheckout:    true,
	})
	return err
}
