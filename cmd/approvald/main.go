package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/loan-approval/internal/application/usecase"
	"github.com/bibbank/loan-approval/internal/domain/service"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
	"github.com/bibbank/loan-approval/internal/infrastructure/config"
	"github.com/bibbank/loan-approval/internal/infrastructure/messaging"
	"github.com/bibbank/loan-approval/internal/infrastructure/ml"
	grpcPresentation "github.com/bibbank/loan-approval/internal/presentation/grpc"
	"github.com/bibbank/loan-approval/internal/presentation/rest"
	"github.com/bibbank/loan-approval/pkg/auth"
	pkgkafka "github.com/bibbank/loan-approval/pkg/kafka"
	"github.com/bibbank/loan-approval/pkg/observability"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $CONFIG_FILE)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Telemetry.ServiceName,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("approvald failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting approvald",
		"environment", cfg.Environment,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"artifact", cfg.Model.ArtifactPath,
	)

	// Tracing is optional.
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	// The service never starts without a usable model.
	store := ml.NewFileArtifactStore(cfg.Model.ArtifactPath)
	model, err := store.Load(ctx)
	if err != nil {
		return err
	}
	meta := model.Metadata()
	logger.Info("model loaded",
		"model_version", meta.Version,
		"trained_at", meta.TrainedAt,
		"features", meta.Schema.Names(),
		"accuracy", meta.Evaluation.Accuracy,
	)

	threshold, err := valueobject.NewDecisionThreshold(cfg.Model.DecisionThreshold)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := messaging.NewEventPublisher(kafkaConfig(cfg), cfg.Kafka.Topic, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	predictUC, err := usecase.NewPredictLoan(model, service.NewDecisionPolicy(threshold), publisher, logger)
	if err != nil {
		return err
	}
	dtiUC := usecase.NewComputeDTI()

	jwtSvc, err := newJWTService(cfg)
	if err != nil {
		return err
	}

	doc, err := rest.LoadOpenAPI(ctx)
	if err != nil {
		return err
	}
	openAPIHandler, err := rest.OpenAPIHandler(doc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Loan:               rest.NewLoanHandler(predictUC, dtiUC, logger),
			Health:             rest.NewHealthHandler(cfg.Telemetry.ServiceName, meta.Version),
			Metrics:            metricsHandler,
			OpenAPI:            openAPIHandler,
			JWT:                jwtSvc,
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			RateLimit:          cfg.Server.RateLimit,
			RateBurst:          cfg.Server.RateBurst,
			Logger:             logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpcPresentation.Server
	if cfg.GRPCEnabled() {
		grpcServer, err = grpcPresentation.NewServer(
			grpcPresentation.NewLoanDecisionHandler(predictUC, dtiUC, logger),
			grpcPresentation.ServerConfig{
				JWT:         jwtSvc,
				TLSCertFile: cfg.TLS.CertFile,
				TLSKeyFile:  cfg.TLS.KeyFile,
				Reflection:  cfg.Server.GRPCReflection,
			},
			logger,
		)
		if err != nil {
			return err
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(cfg.GRPCAddress()); err != nil {
				errCh <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	// Graceful shutdown.
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("approvald stopped")
	return serveErr
}

func kafkaConfig(cfg *config.Config) pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ClientID:      cfg.Telemetry.ServiceName,
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
		TLS:           cfg.Kafka.TLS,
	}
}

// newJWTService returns nil when authentication is disabled. The service only
// validates tokens, so a public key is preferred over a shared secret.
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if !cfg.Auth.Enabled() {
		return nil, nil
	}

	jwtCfg := auth.JWTConfig{Issuer: cfg.Auth.JWTIssuer}
	if cfg.Auth.JWTPublicKeyFile != "" {
		keyData, err := auth.LoadKeyFromFile(cfg.Auth.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = keyData
	} else {
		jwtCfg.Secret = cfg.Auth.JWTSecret
	}
	return auth.NewJWTService(jwtCfg)
}
