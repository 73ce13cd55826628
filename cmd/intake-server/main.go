// cmd/intake-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-intake/internal/api"
	commonaws "loan-intake/internal/common/aws"
	"loan-intake/internal/common/camunda"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/database"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake/service"
	"loan-intake/internal/intake/verification"
	"loan-intake/internal/intake/workflow"
)

// closer collects cleanup steps run on shutdown in reverse order.
type closer []func()

func (c *closer) add(f func()) { *c = append(*c, f) }

func (c closer) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "intake-server"})

	zapLog.Info("Starting intake server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("provider", cfg.Intake.Provider),
	)

	obs := observability.New("intake-server")
	defer obs.Shutdown()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, "intake-server")
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	ctx := context.Background()
	var cleanup closer
	checks := map[string]api.ReadinessCheck{}

	deps, err := collaborators(ctx, cfg, checks, &cleanup, zapLog)
	if err != nil {
		zapLog.Fatal("collaborator init failed", zap.Error(err))
	}

	if cfg.Camunda.Enabled {
		client, err := camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		if err != nil {
			// Sanctions still complete without the back office.
			zapLog.Warn("zeebe unavailable, sanction publishing disabled", zap.Error(err))
		} else {
			deps.Sanctions = workflow.NewPublisher(client, cfg.Camunda.SanctionProcessID, log)
			checks["zeebe"] = client.HealthCheck
			cleanup.add(func() { _ = client.Close() })
		}
	}

	svc, err := service.New(deps, log)
	if err != nil {
		zapLog.Fatal("service init failed", zap.Error(err))
	}

	srv := api.NewServer(svc, cfg.Server, log, api.Options{
		Observability: obs,
		Checks:        checks,
	}).HTTPServer()

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	cleanup.run()
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Warn("tracing shutdown failed", zap.Error(err))
	}

	zapLog.Info("Intake server stopped")
}

// collaborators selects the demo or live PAN, OTP and OCR providers.
func collaborators(
	ctx context.Context,
	cfg *config.Config,
	checks map[string]api.ReadinessCheck,
	cleanup *closer,
	zapLog *zap.Logger,
) (service.Dependencies, error) {
	if cfg.Intake.IsDemo() {
		zapLog.Info("Using demo verification providers")
		return service.Dependencies{
			PAN:       verification.DemoPANVerifier{},
			OTP:       verification.NewDemoOTPService(cfg.Intake.DemoOTP),
			Extractor: verification.DemoIncomeExtractor{FailureRate: cfg.Intake.OCRFailureRate},
			OTPHint:   fmt.Sprintf("(Hint: Use %s for demo)", cfg.Intake.DemoOTP),
		}, nil
	}

	timeout := config.GetDuration(cfg.Verification.Timeout)

	redis := database.NewRedis(cfg.Database.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redis.Ping(pingCtx); err != nil {
		_ = redis.Close()
		return service.Dependencies{}, fmt.Errorf("redis: %w", err)
	}
	checks["redis"] = redis.Ping
	cleanup.add(func() { _ = redis.Close() })

	sns, err := commonaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		return service.Dependencies{}, fmt.Errorf("sns: %w", err)
	}

	zapLog.Info("Using live verification providers",
		zap.String("panUrl", cfg.Verification.PANURL),
		zap.String("ocrUrl", cfg.Verification.OCRURL),
	)
	return service.Dependencies{
		PAN:       verification.NewPANRegistryClient(cfg.Verification.PANURL, cfg.Verification.PANAPIKey, timeout),
		OTP:       verification.NewOTPChannel(redis, sns, cfg.Integrations.AWS.SNS.OTPTopicARN, cfg.Intake.OTPExpiry()),
		Extractor: verification.NewOCRClient(cfg.Verification.OCRURL, timeout),
	}, nil
}
