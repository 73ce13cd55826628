// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonaws "loan-intake/internal/common/aws"
	"loan-intake/internal/common/camunda"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake/fraud"

	clo "loan-intake/internal/workers/loan/compute-loan-options"
	efr "loan-intake/internal/workers/loan/evaluate-fraud-risk"
	gsl "loan-intake/internal/workers/loan/generate-sanction-letter"
	ssn "loan-intake/internal/workers/loan/send-sanction-notification"
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

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	if !cfg.Camunda.Enabled {
		bootLog.Fatal("camunda is disabled; set camunda.enabled to run workers")
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "worker-manager"})

	zapLog.Info("Starting worker manager...")

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, "worker-manager")
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var client *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	evaluator, err := fraud.NewEvaluator()
	if err != nil {
		zapLog.Fatal("fraud rules failed to compile", zap.Error(err))
	}

	var sender commonaws.EmailSender
	sesCfg := cfg.Integrations.AWS.SES
	if sesCfg.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		sender = sesClient
	}

	zc := client.GetClient()
	workers := []*camunda.CamundaWorker{
		camunda.NewWorker(zc, clo.TaskType, config.GetWorkerConfig(cfg, clo.TaskType),
			clo.NewHandler(&clo.Config{Timeout: workerTimeout(cfg, clo.TaskType)}, log),
			obs, log),
		camunda.NewWorker(zc, efr.TaskType, config.GetWorkerConfig(cfg, efr.TaskType),
			efr.NewHandler(&efr.Config{Timeout: workerTimeout(cfg, efr.TaskType)}, evaluator, log),
			obs, log),
		camunda.NewWorker(zc, gsl.TaskType, config.GetWorkerConfig(cfg, gsl.TaskType),
			gsl.NewHandler(&gsl.Config{Timeout: workerTimeout(cfg, gsl.TaskType)}, log),
			obs, log),
		camunda.NewWorker(zc, ssn.TaskType, config.GetWorkerConfig(cfg, ssn.TaskType),
			ssn.NewHandler(&ssn.Config{
				EmailEnabled: sesCfg.Enabled,
				FromEmail:    sesCfg.FromEmail,
				OpsEmail:     sesCfg.OpsEmail,
				Timeout:      workerTimeout(cfg, ssn.TaskType),
			}, sender, log),
			obs, log),
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := client.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthSrv := &http.Server{
		Addr:              cfg.Camunda.HealthAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", healthSrv.Addr))
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("health server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Warn("tracing shutdown failed", zap.Error(err))
	}
	if err := client.Close(); err != nil {
		zapLog.Warn("zeebe client close failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
