package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leetmentor/internal/api"
	"leetmentor/internal/app/service"
	"leetmentor/internal/app/worker"
	"leetmentor/internal/common/security"
	"leetmentor/internal/domain/repository"
	"leetmentor/internal/platform/breaker"
	"leetmentor/internal/platform/config"
	"leetmentor/internal/platform/database"
	"leetmentor/internal/platform/judge"
	"leetmentor/internal/platform/llm"
	"leetmentor/internal/platform/logging"
	"leetmentor/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if err := database.MigrateUp(db); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	logger.Info().Msg("database connected and migrated")

	// 3. Initialize Redis
	rdb, err := queue.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")

	// 4. Upstream clients
	judgeClient := judge.NewClient(cfg.JudgeGraphQLURL, cfg.JudgeTimeout, breaker.New(breaker.DefaultConfig("judge")))
	chatClient, err := llm.New(cfg, breaker.New(breaker.DefaultConfig("llm")))
	if err != nil {
		logger.Fatal().Err(err).Msg("llm client setup failed")
	}
	issuer := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	locker := queue.NewLocker(rdb, cfg.SyncLockKeyPrefix, time.Duration(cfg.SyncLockTTLSeconds)*time.Second)

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)
	progressRepo := repository.NewPgProgressRepository(db)
	transactor := repository.NewPgTransactor(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, issuer)
	judgeService := service.NewJudgeService(userRepo, problemRepo, submissionRepo, progressRepo, transactor, judgeClient, locker, cfg.SyncDefaultLimit)
	syncJobService := service.NewSyncJobService(userRepo, rdb, cfg.SyncQueueName)
	progressService := service.NewProgressService(problemRepo, submissionRepo, progressRepo, time.Now, cfg.StreakLocation)
	problemService := service.NewProblemService(problemRepo)
	recommendService := service.NewRecommendService(problemRepo)
	mentorService := service.NewMentorService(problemRepo, submissionRepo, progressRepo, transactor, chatClient, cfg.LLMTemperature, time.Now, cfg.StreakLocation)

	// 7. Initialize Sync Worker (as a goroutine)
	syncWorker := worker.NewSyncWorker(rdb, cfg.SyncQueueName, syncJobService, judgeService)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		syncWorker.Start(workerCtx)
	}()

	// 8. Initialize Router & HTTP Server
	// Mentor calls can take as long as the LLM timeout.
	requestTimeout := cfg.LLMTimeout + 30*time.Second
	router := api.NewRouter(api.RouterConfig{
		RequestTimeout:      requestTimeout,
		JWTAuth:             issuer.JWTAuth(),
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		MentorRatePerMinute: cfg.MentorRateLimitPerMinute,
		Ping: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}, api.Services{
		Auth:        authService,
		Judge:       judgeService,
		SyncJobs:    syncJobService,
		Progress:    progressService,
		Submissions: progressService,
		Problems:    problemService,
		Recommend:   recommendService,
		Mentor:      mentorService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.APIPort).Str("llm_provider", cfg.LLMProvider).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Str("port", cfg.APIPort).Msg("could not listen")
		}
	}()

	// 9. Graceful Shutdown
	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("sync worker did not stop in time")
	}
	logger.Info().Msg("server and worker stopped gracefully")
}
