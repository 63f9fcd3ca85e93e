// Package main - точка входа HTTP-сервиса Club Progress Hub.
//
// Hub отвечает за:
// - REST API для прогресса, баллов, зачётов и рейтингов
// - Приём и проверку ответов участников
// - Ведение журнала баллов и кешированных балансов
// - Фоновые задачи (сверка балансов, прогрев рейтингов)
//
// Философия: "Прогресс важнее соревнования" - система фиксирует путь
// каждого участника, а рейтинги лишь подсвечивают движение клубов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clube-hub/club-progress-hub/config"
	"github.com/clube-hub/club-progress-hub/internal/application/command"
	"github.com/clube-hub/club-progress-hub/internal/application/eventhandler"
	"github.com/clube-hub/club-progress-hub/internal/application/query"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/external/identity"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/messaging"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/scheduler"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/clube-hub/club-progress-hub/internal/interface/http"
	"github.com/clube-hub/club-progress-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})
	log.Info("starting Club Progress Hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var rankingCache ranking.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.MinIdleConns > 0 {
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Редис ускоряет рейтинги, но сервис живёт и без него.
			log.Warn("failed to connect to Redis, ranking cache disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			rankingCache = redis.NewRankingCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	var eventBus shared.EventBus
	if redisCache != nil {
		bus, err := messaging.NewRedisEventBus(messaging.RedisConfig{
			Client: messaging.NewGoRedisClient(redisCache.Client()),
			LocalConfig: messaging.InMemoryConfig{
				AsyncMode: true,
				Logger:    log,
			},
			Logger: log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = bus
	} else {
		busCfg := messaging.DefaultInMemoryConfig()
		busCfg.Logger = log
		eventBus = messaging.NewInMemoryEventBus(busCfg)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing identity client...")
	identityCfg := identity.DefaultClientConfig(cfg.Identity.BaseURL)
	identityCfg.APIKey = cfg.Identity.APIKey
	identityCfg.Timeout = cfg.Identity.RequestTimeout
	identityCfg.Logger = log
	identityClient := identity.NewClient(identityCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. РЕПОЗИТОРИИ И UNIT OF WORK
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	memberRepo := postgres.NewMemberRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	completionRepo := postgres.NewCompletionRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	curriculumRepo := postgres.NewCurriculumRepository(dbConn)
	assignmentRepo := postgres.NewAssignmentRepository(dbConn)
	rankingReader := postgres.NewRankingReader(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ОБРАБОТЧИКИ КОМАНД И ЗАПРОСОВ (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	registerMember := command.NewRegisterMemberHandler(memberRepo, eventBus)
	manageMember := command.NewManageMemberHandler(memberRepo, identityClient, eventBus)
	submitAnswer := command.NewSubmitAnswerHandler(uow, curriculumRepo, assignmentRepo, eventBus)
	reviewProgress := command.NewReviewProgressHandler(uow, curriculumRepo, identityClient, eventBus)
	revokeApproval := command.NewRevokeApprovalHandler(uow, curriculumRepo, identityClient, eventBus)
	awardSpecialty := command.NewAwardSpecialtyHandler(uow, curriculumRepo, identityClient, eventBus)
	bulkAward := command.NewBulkAwardHandler(uow, identityClient, eventBus)
	adjustPoints := command.NewAdjustPointsHandler(uow, identityClient, eventBus)
	deleteHistory := command.NewDeleteHistoryHandler(uow, identityClient, eventBus)
	recomputeBalance := command.NewRecomputeBalanceHandler(uow, eventBus)

	getBalance := query.NewGetBalanceHandler(memberRepo, ledgerRepo)
	getProgress := query.NewGetProgressHandler(progressRepo, curriculumRepo, memberRepo)
	getCompletion := query.NewGetCompletionHandler(completionRepo)
	getRanking := query.NewGetRankingHandler(rankingReader, rankingCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ПОДПИСКА ОБРАБОТЧИКОВ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	if rankingCache != nil {
		pointsChanged := eventhandler.NewPointsChangedHandler(memberRepo, rankingCache, appLog)
		if err := pointsChanged.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register points handler: %w", err)
		}
	}
	if cfg.Features.IsEnabled(config.FeatureNotifyCompletion) {
		notifier := eventhandler.NewLogNotifier(appLog)
		specialtyCompleted := eventhandler.NewSpecialtyCompletedHandler(notifier, appLog)
		if err := specialtyCompleted.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register specialty handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. SCHEDULER И ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: time.UTC,
	})

	if cfg.Scheduler.Enabled {
		log.Info("registering scheduled jobs...")

		reconcileCfg := jobs.DefaultReconcileBalancesConfig()
		reconcileCfg.Timeout = cfg.Scheduler.JobTimeout
		reconcileJob := jobs.NewReconcileBalancesJob(memberRepo, recomputeBalance, log, reconcileCfg)

		reconcileSchedule, err := scheduler.ParseCronSchedule(cfg.Scheduler.ReconcileCron)
		if err != nil {
			return fmt.Errorf("invalid reconcile cron %q: %w", cfg.Scheduler.ReconcileCron, err)
		}
		if err := sched.Register(reconcileJob, reconcileSchedule); err != nil {
			return fmt.Errorf("failed to register reconcile job: %w", err)
		}

		if rankingCache != nil {
			rebuildJob := jobs.NewRebuildRankingsJob(
				rankingReader, rankingCache, rankingReader, log,
				jobs.DefaultRebuildRankingsConfig(),
			)
			rebuildSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildRankingsInterval)
			if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
				return fmt.Errorf("failed to register rebuild job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.AdminAPIKeys = cfg.HTTP.AdminAPIKeys

	httpServer := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		RegisterMemberHandler:   registerMember,
		ManageMemberHandler:     manageMember,
		SubmitAnswerHandler:     submitAnswer,
		ReviewProgressHandler:   reviewProgress,
		RevokeApprovalHandler:   revokeApproval,
		AwardSpecialtyHandler:   awardSpecialty,
		BulkAwardHandler:        bulkAward,
		AdjustPointsHandler:     adjustPoints,
		DeleteHistoryHandler:    deleteHistory,
		RecomputeBalanceHandler: recomputeBalance,

		GetBalanceHandler:    getBalance,
		GetProgressHandler:   getProgress,
		GetCompletionHandler: getCompletion,
		GetRankingHandler:    getRanking,

		Logger:        appLog,
		HealthChecker: &healthChecker{db: dbConn, cache: redisCache, sched: sched},
		Jobs:          sched,
	})

	errCh := httpServer.StartAsync()
	log.Info("Club Progress Hub is running", "address", httpCfg.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
		}
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if sched.IsRunning() {
		if err := sched.Stop(); err != nil {
			log.Error("scheduler stop failed", "error", err)
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECK
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker агрегирует состояние зависимостей для /health.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
	sched *scheduler.Scheduler
}

func (h *healthChecker) Check(ctx context.Context) httpapi.HealthStatus {
	status := httpapi.HealthStatus{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string),
		CheckedAt:  time.Now().UTC(),
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Components["database"] = "down: " + err.Error()
	} else {
		status.Components["database"] = "up"
	}

	// Redis опционален: его отсутствие не роняет readiness.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Components["redis"] = "down: " + err.Error()
		} else {
			status.Components["redis"] = "up"
		}
	} else {
		status.Components["redis"] = "disabled"
	}

	if h.sched.IsRunning() {
		status.Components["scheduler"] = "running"
	} else {
		status.Components["scheduler"] = "stopped"
	}

	if !status.Healthy {
		status.Message = "one or more components are down"
	}
	return status
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
