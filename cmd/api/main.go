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

	httptransport "github.com/spec-kit/classroom-service/internal/api/http"
	"github.com/spec-kit/classroom-service/internal/api/http/handlers"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/datastore"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/observability"
	"github.com/spec-kit/classroom-service/internal/persistence"
	"github.com/spec-kit/classroom-service/internal/repository"
	"github.com/spec-kit/classroom-service/internal/service"
	"github.com/spec-kit/classroom-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, cfg.App.Name, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	accountRepo := repository.NewAccountRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	classroomRepo := repository.NewClassroomRepository(pool)
	parentRepo := repository.NewParentRepository(pool)
	objectRepo := repository.NewObjectRepository(pool)
	store := datastore.New(pool, datastore.DefaultSchema)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo: accountRepo,
		Revocations: cache.NewTokenRevocations(redis.Client),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	profileService := service.NewProfileService(profileRepo, cache.NewCacheHelper(redis.Client, "profile", logger), dispatcher, logger)
	quizService := service.NewQuizService(questionRepo, resultRepo, dispatcher, logger)
	examService := service.NewExamService(cfg.Exam, service.ExamDependencies{
		QuestionRepo: questionRepo,
		ResultRepo:   resultRepo,
		Sessions:     cache.NewExamSessionStore(redis.Client),
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	leaderboardService := service.NewLeaderboardService(cfg.Leaderboard, resultRepo, cache.NewCacheHelper(redis.Client, "leaderboard", logger), logger)
	classroomService := service.NewClassroomService(classroomRepo, dispatcher, logger)
	parentService := service.NewParentService(parentRepo, profileRepo, dispatcher, logger)
	notificationService := service.NewNotificationService(parentRepo, cache.NewParentFeed(redis.Client), logger)
	navigationService := service.NewNavigationService(cfg.Navigation, profileService, metrics, logger)
	storageService := service.NewStorageService(*cfg, objectRepo)
	dataService := service.NewDataService(store)
	adminService := service.NewAdminService(service.AdminDependencies{
		Store:       store,
		ProfileRepo: profileRepo,
		AccountRepo: accountRepo,
		Profiles:    profileService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	worker.StartEventSubscribers(dispatcher, logger, leaderboardService, navigationService, notificationService)
	go worker.NewExamExpiryWorker(examService, cfg.Exam.SweepInterval(), logger).Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Storage.MaxObjectBytes + 1<<20,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Navigation:     handlers.NewNavigationHandler(navigationService),
		Profiles:       handlers.NewProfilesHandler(profileService),
		Learning:       handlers.NewLearningHandler(quizService, examService, leaderboardService),
		Classrooms:     handlers.NewClassroomsHandler(classroomService, parentService, notificationService),
		Storage:        handlers.NewStorageHandler(storageService),
		Rest:           handlers.NewRestHandler(dataService),
		Admin:          handlers.NewAdminHandler(adminService, adminService),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		ProfileLoader:  profileService,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

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
