// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobmatch-notifier/internal/common/config"
	"jobmatch-notifier/internal/common/database"
	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/common/observability"
	"jobmatch-notifier/internal/notify/delivery"
	"jobmatch-notifier/internal/notify/render"
	"jobmatch-notifier/internal/queue"
	"jobmatch-notifier/internal/store"
	sn "jobmatch-notifier/internal/workers/notification/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification worker...",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("notification-worker")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Delivery Clients ---
	emailSender, err := delivery.NewEmailSender(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail, log)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	smsSender, err := delivery.NewSMSSender(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID, log)
	if err != nil {
		zapLog.Fatal("sns client failed", zap.Error(err))
	}
	zapLog.Info("Delivery clients initialized")

	// --- Wire the orchestrator ---
	resolver := store.NewResolver(pg.DB, log)
	renderer := render.NewRenderer(cfg.Notifications.TemplatePath, log)
	handler := sn.NewHandler(sn.LoadConfig(cfg), resolver, renderer, emailSender, smsSender, log)

	status := queue.NewStatusTracker(rdb.Client, config.GetDurationSeconds(cfg.Queue.ResultExpiry))
	broker := queue.NewBroker(rdb.Client, status, log)

	manager := queue.NewManager(broker, cfg.Queue, obs, log)
	manager.Register(sn.TaskType, handler)

	// --- Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Blocks until the signal context is cancelled and in-flight
	// attempts drain.
	manager.Run(ctx)

	zapLog.Info("Notification worker stopped gracefully")
}
