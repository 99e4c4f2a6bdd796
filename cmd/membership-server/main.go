// cmd/membership-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"membership-signup/internal/admin/auth"
	"membership-signup/internal/admin/listing"
	"membership-signup/internal/api"
	"membership-signup/internal/common/aws"
	"membership-signup/internal/common/camunda"
	"membership-signup/internal/common/config"
	"membership-signup/internal/common/database"
	apperrors "membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/observability"
	"membership-signup/internal/signup/onboarding"
	"membership-signup/internal/signup/payment"
	"membership-signup/internal/signup/submission"
	"membership-signup/internal/signup/wizard"
	"membership-signup/internal/store"

	fn "membership-signup/internal/workers/onboarding/fulfillment-notice"
	we "membership-signup/internal/workers/onboarding/welcome-email"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
// Errors carrying a non-retryable code end the loop at once.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if code := apperrors.CodeOf(err); code != "" && !apperrors.IsRetryableErrorCode(code) {
			return fmt.Errorf("%s failed: %w", operationName, err)
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

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	configPath := flag.String("config", "", "Config file path (default: configs/config.yaml plus the environment overlay)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting membership server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability init failed, HTTP metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]api.Check{}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return apperrors.NewConfigurationError(err.Error())
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return apperrors.NewDatabaseConnectionFailedError(err)
		}
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx, store.Schema); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}
	checks["postgres"] = pg.Ping
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rc *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return apperrors.NewConfigurationError(err.Error())
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return apperrors.NewDatabaseConnectionFailedError(err)
		}
		return nil
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	checks["redis"] = rc.Ping
	zapLog.Info("Redis connected successfully")

	memberships := store.NewPostgresStore(pg.DB, log)

	// --- Init Elasticsearch (optional) ---
	var (
		indexer  submission.Indexer
		searcher listing.Searcher
	)
	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := store.NewSearchIndex(es.Client, cfg.Database.Elasticsearch.Index, log)
		if err := index.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("search index setup failed", zap.Error(err))
		}
		indexer, searcher = index, index
		checks["elasticsearch"] = es.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init AWS notification channels ---
	var (
		mailer        we.Mailer
		fulfillment   fn.Publisher
		supportTopic  onboarding.Publisher
		awsIntegr     = cfg.Integrations.AWS
		needAWSConfig = awsIntegr.SES.Enabled || awsIntegr.SNS.Enabled
	)
	if needAWSConfig {
		awsCfg, err := aws.LoadConfig(ctx, awsIntegr.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if awsIntegr.SES.Enabled {
			mailer = aws.NewMailer(awsCfg, awsIntegr.SES.FromEmail)
		}
		if awsIntegr.SNS.Enabled && awsIntegr.SNS.FulfillmentTopicARN != "" {
			fulfillment = aws.NewTopicPublisher(awsCfg, awsIntegr.SNS.FulfillmentTopicARN)
		}
		if awsIntegr.SNS.Enabled && awsIntegr.SNS.SupportTopicARN != "" {
			supportTopic = aws.NewTopicPublisher(awsCfg, awsIntegr.SNS.SupportTopicARN)
		}
	}

	// --- Init Zeebe client and onboarding workers ---
	var (
		processClient onboarding.ProcessClient
		zeebe         *camunda.Client
		jobWorkers    []worker.JobWorker
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		processClient = zeebe
		checks["camunda"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		wcfg := config.GetWorkerConfig(cfg, we.TaskType)
		welcome := we.NewHandler(&we.Config{
			Enabled:        awsIntegr.SES.Enabled,
			SupportContact: cfg.Payment.SupportContact,
			Timeout:        config.GetDuration(wcfg.Timeout),
		}, mailer, log)
		if jw := camunda.StartWorker(zeebe.GetClient(), we.TaskType, wcfg, welcome, log); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}

		wcfg = config.GetWorkerConfig(cfg, fn.TaskType)
		notice := fn.NewHandler(&fn.Config{
			Enabled: fulfillment != nil,
			Timeout: config.GetDuration(wcfg.Timeout),
		}, fulfillment, log)
		if jw := camunda.StartWorker(zeebe.GetClient(), fn.TaskType, wcfg, notice, log); jw != nil {
			jobWorkers = append(jobWorkers, jw)
		}
		zapLog.Info("Onboarding workers registered", zap.Int("count", len(jobWorkers)))
	}

	// --- Signup wiring ---
	persister := submission.NewService(submission.Dependencies{
		Store:   memberships,
		Indexer: indexer,
		Starter: onboarding.NewZeebeStarter(processClient, cfg.Camunda.ProcessID, log),
		Alerter: onboarding.NewSupportAlerter(supportTopic, log),
		Logger:  log,
	})

	var provider payment.Provider
	if cfg.Payment.SecretKey != "" {
		provider = payment.NewStripeProvider(cfg.Payment.SecretKey)
	} else {
		zapLog.Warn("payment secret key not set, payment intents will fail with a configuration error")
	}
	initiator := payment.NewInitiator(provider, cfg.Payment, log)

	runs := wizard.NewRegistry(wizard.Dependencies{
		Intents:   initiator,
		Provider:  provider,
		Persister: persister,
		Flow: payment.FlowConfig{
			ReturnURL:      strings.TrimRight(cfg.Server.PublicBaseURL, "/") + cfg.Payment.ReturnPath,
			SuccessDelay:   config.GetDuration(cfg.Payment.SuccessDelay),
			SupportContact: cfg.Payment.SupportContact,
		},
		PublishableKey: cfg.Payment.PublishableKey,
		Logger:         log,
	}, time.Duration(cfg.Signup.RunTTL)*time.Minute)
	go runs.Run(ctx, time.Duration(cfg.Signup.SweepInterval)*time.Second)

	// --- Admin wiring ---
	admins := auth.NewService(memberships, rc.Client, auth.Config{
		JWTSecret:   []byte(cfg.Admin.JWTSecret),
		SessionTTL:  time.Duration(cfg.Admin.SessionTTL) * time.Minute,
		MaxAttempts: cfg.Admin.LoginMaxAttempts,
		Window:      time.Duration(cfg.Admin.LoginWindow) * time.Second,
	}, log)

	srv := api.NewServer(api.Dependencies{
		Runs:        runs,
		Intents:     initiator,
		Auth:        admins,
		Submissions: listing.NewService(memberships, searcher, log),
		Checks:      checks,
		Metrics:     obs,
		Logger:      log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, jw := range jobWorkers {
		jw.Close()
		jw.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Membership server stopped gracefully")
}
