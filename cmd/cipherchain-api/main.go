// Cipherchain API — HTTP API выполнения цепочек.
//
// API:
//   - Выполняет и проверяет цепочки, анализирует URL
//   - Управляет ключами, шаблонами и историей
//   - Публикует chain.executed в RabbitMQ, если хранилище общее (postgres)
//
// С хранилищем sqlite или memory история пишется напрямую, а очистка
// по расписанию запускается в этом же процессе.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cipherchain/internal/api"
	"github.com/shaiso/Cipherchain/internal/chain"
	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/mq"
	"github.com/shaiso/Cipherchain/internal/repo"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
	"github.com/shaiso/Cipherchain/internal/scheduler"
	"github.com/shaiso/Cipherchain/internal/steps"
	"github.com/shaiso/Cipherchain/internal/telemetry"
)

var (
	startTime    = time.Now()
	healthChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cipherchain_api_health_checks_total",
		Help: "Total health check requests handled by cipherchain-api",
	})
)

func main() {
	logger := telemetry.SetupLogger("cipherchain-api")
	logger.Info("starting cipherchain-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := repo.Open(ctx, repo.DriverFromEnv())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store opened", "driver", store.Driver)

	// RSA backend
	var opts []rsacrypto.Option
	if disabled, _ := strconv.ParseBool(os.Getenv("RSA_DISABLE_PKCS1")); disabled {
		opts = append(opts, rsacrypto.WithoutPKCS1())
		logger.Warn("RSA-PKCS1 disabled, PKCS1 steps fall back to RSA-OAEP")
	}
	provider := rsacrypto.NewProvider(opts...)

	metrics := telemetry.NewChainMetrics(prometheus.DefaultRegisterer)

	recorder, mqConn := setupRecorder(ctx, store, logger)
	if mqConn != nil {
		defer mqConn.Close()
	}

	service := chain.NewService(chain.ServiceConfig{
		Executor: chain.NewExecutor(chain.Config{
			Registry: steps.DefaultRegistry(provider),
			Metrics:  metrics,
			Logger:   logger,
		}),
		Keys:      store.Keys,
		Templates: store.Templates,
		Recorder:  recorder,
		Logger:    logger,
	})

	handler := api.NewHandler(api.Config{
		Service:   service,
		Keys:      store.Keys,
		Templates: store.Templates,
		History:   store.History,
		Generator: provider,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		healthChecks.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	// Без общего хранилища recorder не запущен, историю чистим здесь
	if store.Driver != repo.DriverPostgres {
		go runPruner(ctx, store.History, logger)
	}

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// setupRecorder выбирает, куда пишутся результаты выполнения.
//
// Для postgres результаты публикуются в RabbitMQ и сохраняются
// recorder'ом; при ошибке публикации запись идёт напрямую в историю.
// Для остальных драйверов и без брокера история пишется напрямую.
func setupRecorder(ctx context.Context, store *repo.Store, logger *slog.Logger) (chain.Recorder, *mq.Connection) {
	direct := chain.RecorderFunc(store.History.Append)

	if store.Driver != repo.DriverPostgres {
		return direct, nil
	}

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	conn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, writing history directly", "error", err)
		return direct, nil
	}
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	publisher := mq.NewPublisher(conn, logger)

	return chain.RecorderFunc(func(ctx context.Context, res *domain.ChainExecutionResult) error {
		if err := publisher.Record(ctx, res); err != nil {
			telemetry.WithChainID(logger, res.ID).Warn("publish failed, writing history directly", "error", err)
			return direct.Record(ctx, res)
		}
		return nil
	}), conn
}

func runPruner(ctx context.Context, history repo.HistoryStore, logger *slog.Logger) {
	retention, expr, err := scheduler.FromEnv()
	if err != nil {
		logger.Error("invalid history prune config", "error", err)
		return
	}

	pruner := scheduler.New(scheduler.Config{
		History:   history,
		Retention: retention,
		Logger:    logger,
	})
	if err := pruner.Run(ctx, expr); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("history pruner stopped", "error", err)
	}
}
