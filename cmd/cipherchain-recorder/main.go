// Cipherchain Recorder — сохраняет историю выполнений.
//
// Recorder:
//   - Получает chain.executed из RabbitMQ (очередь chain.history)
//   - Пишет результаты в хранилище истории
//   - Удаляет историю старше HISTORY_RETENTION по HISTORY_PRUNE_CRON
//
// Без брокера работает только очистка.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cipherchain/internal/mq"
	"github.com/shaiso/Cipherchain/internal/repo"
	"github.com/shaiso/Cipherchain/internal/scheduler"
	"github.com/shaiso/Cipherchain/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("cipherchain-recorder")
	logger.Info("starting cipherchain-recorder")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	retention, pruneCron, err := scheduler.FromEnv()
	if err != nil {
		logger.Error("invalid history prune config", "error", err)
		os.Exit(1)
	}

	store, err := repo.Open(ctx, repo.DriverFromEnv())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store opened", "driver", store.Driver)

	var wg sync.WaitGroup

	// RabbitMQ
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running prune-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}

		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:    mq.QueueHistory,
			Handler:  mq.NewHistoryHandler(store.History, logger),
			Prefetch: 16,
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("history consumer stopped", "error", err)
				cancel()
			}
		}()
	}

	pruner := scheduler.New(scheduler.Config{
		History:   store.History,
		Retention: retention,
		Logger:    logger,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pruner.Run(ctx, pruneCron); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("history pruner stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if mqConn != nil && !mqConn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("RECORDER_PORT"); v != "" {
		port = ":" + v
	}

	server := &http.Server{
		Addr:              port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
	logger.Info("cipherchain-recorder stopped")
}
