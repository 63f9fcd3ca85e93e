// Package main - точка входа фоновых процессов (Worker) Club Progress Hub.
//
// Worker отвечает за периодические задачи:
// - Сверка кешированных балансов с журналом баллов
// - Прогрев кеша рейтингов по клубам и возрастным группам
//
// Worker можно запускать отдельно от HTTP-сервиса: задачи идемпотентны,
// и параллельный запуск с hub лишь ускоряет сходимость кешей.
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
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/messaging"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/scheduler"
	"github.com/clube-hub/club-progress-hub/internal/infrastructure/scheduler/jobs"
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
	log.Info("starting Club Progress Hub Worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
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

	// Worker тоже держит схему актуальной: он может стартовать первым.
	if cfg.Database.AutoMigrate {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
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

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, ranking warm-up disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			rankingCache = redis.NewRankingCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕПОЗИТОРИИ, EVENT BUS И ОБРАБОТЧИКИ
	// ─────────────────────────────────────────────────────────────────────────
	memberRepo := postgres.NewMemberRepository(dbConn)
	rankingReader := postgres.NewRankingReader(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	busCfg := messaging.DefaultInMemoryConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		_ = eventBus.Close()
	}()

	// Сверка публикует событие при исправлении дрифта; подписчик
	// сбрасывает кеш рейтингов затронутого клуба.
	if rankingCache != nil {
		pointsChanged := eventhandler.NewPointsChangedHandler(memberRepo, rankingCache, appLog)
		if err := pointsChanged.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register points handler: %w", err)
		}
	}

	recomputeBalance := command.NewRecomputeBalanceHandler(uow, eventBus)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: time.UTC,
	})

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
	log.Info("Club Progress Hub Worker is running",
		"jobs", len(sched.ListJobs()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

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
