// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	awsclients "rfq-workers/internal/common/aws"
	"rfq-workers/internal/common/camunda"
	"rfq-workers/internal/common/config"
	"rfq-workers/internal/common/database"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/matching/cache"
	"rfq-workers/internal/matching/compatibility"
	"rfq-workers/internal/matching/engine"
	"rfq-workers/internal/matching/guidance"
	"rfq-workers/internal/matching/partnership"
	"rfq-workers/internal/matching/scoring"
	"rfq-workers/internal/matching/service"
	"rfq-workers/internal/notify"
	"rfq-workers/internal/repository/postgres"
	"rfq-workers/internal/repository/search"

	fp "rfq-workers/internal/workers/rfq/facilitate-partnership"
	gbg "rfq-workers/internal/workers/rfq/get-bid-guidance"
	mc "rfq-workers/internal/workers/rfq/match-candidate"
	po "rfq-workers/internal/workers/rfq/process-opportunity"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("starting worker manager", map[string]interface{}{"environment": cfg.App.Environment})

	// a weight table that does not sum to 1.0 is a build defect; refuse to start
	weights := scoring.MustDefaultWeights()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected", nil)

	// --- PostgreSQL: opportunities, collaborations, facilitations, and
	// candidates unless they come from Elasticsearch ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()
	log.Info("PostgreSQL connected", nil)

	opportunities := postgres.NewOpportunityRepository(pg.DB)

	var businesses engine.BusinessRepository
	switch cfg.Matching.CandidateSource {
	case config.CandidateSourceElasticsearch:
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			fatal(log, "elasticsearch failed after retries", err)
		}
		businesses = search.NewBusinessRepository(es.Client, cfg.Database.Elasticsearch.BusinessIndex)
		log.Info("candidates served from Elasticsearch", map[string]interface{}{"index": cfg.Database.Elasticsearch.BusinessIndex})
	default:
		businesses = postgres.NewBusinessRepository(pg.DB)
		log.Info("candidates served from PostgreSQL", nil)
	}

	// --- Match cache ---
	var matchCache cache.MatchCache
	switch cfg.Matching.CacheBackend {
	case config.CacheBackendRedis:
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			fatal(log, "redis failed after retries", err)
		}
		defer rdb.Close()
		matchCache = cache.NewRedis(rdb.Client, cfg.Matching.CacheTTLDuration(), log)
		log.Info("match cache backed by Redis", nil)
	default:
		matchCache = cache.NewMemory(cfg.Matching.CacheTTLDuration())
	}

	notifier, err := buildNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		fatal(log, "notifier setup failed", err)
	}

	// --- Matching core ---
	eng := engine.New(businesses, opportunities, matchCache, log,
		engine.WithModel(scoring.NewModel(weights)),
		engine.WithConcurrency(cfg.Matching.ScoringConcurrency),
		engine.WithDefaultLimit(cfg.Matching.DefaultLimit),
	)
	evaluator := compatibility.NewEvaluator(postgres.NewCollaborationRepository(pg.DB), log)
	synth := partnership.NewSynthesizer(evaluator, weights, log)
	facilitator := partnership.NewFacilitator(postgres.NewFacilitationStore(pg.DB), notifier, log)

	svc := service.New(eng, opportunities, synth, facilitator, guidance.NewGenerator(), notifier,
		service.Options{
			NotifyMinScore: cfg.Matching.NotifyMinScore,
			AutoFacilitate: cfg.Matching.AutoFacilitate,
		}, log)

	// --- Workers ---
	client := zeebe.GetClient()
	workers := []*camunda.Worker{
		camunda.StartWorker(client, po.TaskType, cfg.Workers[po.TaskType],
			po.NewHandler(&po.Config{
				Timeout:            config.GetDuration(cfg.Workers[po.TaskType].Timeout),
				MaxMatchesInOutput: 25,
			}, svc, opportunities, obs, log), log),
		camunda.StartWorker(client, mc.TaskType, cfg.Workers[mc.TaskType],
			mc.NewHandler(&mc.Config{
				Timeout:      config.GetDuration(cfg.Workers[mc.TaskType].Timeout),
				DefaultLimit: cfg.Matching.DefaultLimit,
			}, svc, obs, log), log),
		camunda.StartWorker(client, gbg.TaskType, cfg.Workers[gbg.TaskType],
			gbg.NewHandler(&gbg.Config{
				Timeout: config.GetDuration(cfg.Workers[gbg.TaskType].Timeout),
			}, svc, obs, log), log),
		camunda.StartWorker(client, fp.TaskType, cfg.Workers[fp.TaskType],
			fp.NewHandler(&fp.Config{
				Timeout: config.GetDuration(cfg.Workers[fp.TaskType].Timeout),
			}, svc, obs, log), log),
	}
	log.Info("workers registered", nil)

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "zeebe": "ok"}
		status := http.StatusOK
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := cfg.App.HTTPPort
	if port == 0 {
		port = 8080
	}
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(20 * time.Second)
	}
	svc.Wait()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped", nil)
}

// buildNotifier composes the enabled channels; with none enabled
// notifications are dropped.
func buildNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (notify.Notifier, error) {
	if !cfg.SNS.Enabled && !cfg.SES.Enabled {
		log.Info("notifications disabled", nil)
		return notify.Nop{}, nil
	}

	awsCfg, err := awsclients.LoadConfig(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	var channels notify.Multi
	if cfg.SNS.Enabled {
		channels = append(channels, notify.NewSNSNotifier(awsclients.NewSNSClient(awsCfg), cfg.SNS.TopicARN, log))
	}
	if cfg.SES.Enabled {
		channels = append(channels, notify.NewSESNotifier(awsclients.NewSESClient(awsCfg), cfg.SES.FromEmail, log))
	}
	log.Info("notifications enabled", map[string]interface{}{
		"sns": cfg.SNS.Enabled,
		"ses": cfg.SES.Enabled,
	})
	return channels, nil
}

func writeStatus(w http.ResponseWriter, status int, label string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{
		"status": label,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	json.NewEncoder(w).Encode(body)
}
