package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/gateway"
	profilegrpc "github.com/k1s0-platform/system-server-go-profile/internal/adapter/grpc"
	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/handler"
	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/middleware"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/service"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/auth"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/config"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/messaging"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/persistence"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/telemetry"
	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

func main() {
	configPath := flag.String("config", envOr("PROFILE_CONFIG", "config/config.yaml"), "path to config file")
	flag.Parse()

	// --- Config ---
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}

	// --- Telemetry ---
	tp, err := telemetry.InitTelemetry(context.Background(), telemetry.Config{
		ServiceName:   cfg.App.Name,
		Version:       cfg.App.Version,
		Tier:          cfg.App.Tier,
		Environment:   cfg.App.Environment,
		TraceEndpoint: cfg.Telemetry.TraceEndpoint,
		SampleRate:    cfg.Telemetry.SampleRate,
		LogLevel:      cfg.Telemetry.LogLevel,
	})
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer tp.Shutdown(context.Background())
	logger := tp.Logger()
	slog.SetDefault(logger)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(cfg.App.Name, registry)

	// --- Database ---
	db, err := persistence.NewDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		applied, err := persistence.Migrate(context.Background(), db)
		if err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrated", "applied", applied)
	}

	// --- Kafka ---
	var publisher usecase.ProfileEventPublisher
	var kafkaChecker handler.HealthChecker
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewKafkaProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
		kafkaChecker = producer
	} else {
		slog.Warn("kafka brokers not configured, profile events are disabled")
	}

	// --- Auth core ---
	httpClient := &http.Client{Timeout: cfg.Auth.HTTPTimeout}
	keyResolver := auth.NewKeyResolver(cfg.Auth.JWKSURI, auth.NewHTTPJWKSFetcher(httpClient),
		auth.WithFetchObserver(metrics))
	if err := keyResolver.Warmup(context.Background()); err != nil {
		// 起動時に取得できなくても、未知の kid を受けた時点で再取得する。
		slog.Warn("failed to prefetch signing keys", "error", err)
	}
	decoder := auth.NewTokenDecoder(keyResolver, auth.DecoderConfig{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		Algorithms: cfg.Auth.Algorithms,
		Leeway:     cfg.Leeway(),
	})
	if leeway := cfg.Leeway(); leeway > 0 {
		slog.Warn("token expiry leeway enabled", "leeway", leeway.String(), "environment", cfg.App.Environment)
	}
	userInfoClient := gateway.NewUserInfoClient(gateway.UserInfoConfig{
		Issuer:      cfg.Auth.Issuer,
		UserInfoURL: cfg.Auth.UserInfoURL,
		Timeout:     cfg.Auth.HTTPTimeout,
	}, gateway.WithIdentityFetchObserver(metrics))

	// --- DI ---
	profileRepo := persistence.NewProfileRepository(db)

	authenticateUC := usecase.NewAuthenticateUseCase(decoder, service.NewScopeAuthorizer())
	resolveProfileUC := usecase.NewResolveProfileUseCase(profileRepo, userInfoClient, publisher,
		usecase.WithLinkRecorder(metrics))
	getProfileUC := usecase.NewGetProfileUseCase(profileRepo)
	listProfilesUC := usecase.NewListProfilesUseCase(profileRepo)
	createProfileUC := usecase.NewCreateProfileUseCase(profileRepo, publisher)
	editProfileUC := usecase.NewEditProfileUseCase(profileRepo, publisher)
	bestowAwardUC := usecase.NewBestowAwardUseCase(profileRepo, publisher)

	// --- REST Router ---
	if cfg.App.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(telemetry.GinMiddleware(logger, metrics))

	handler.RegisterHealthRoutes(r, metrics.Handler(),
		handler.DependencyCheck{Name: "database", Checker: profileRepo},
		handler.DependencyCheck{Name: "identity_provider", Checker: userInfoClient},
		handler.DependencyCheck{Name: "kafka", Checker: kafkaChecker},
	)

	profileHandler := handler.NewProfileHandler(
		getProfileUC, listProfilesUC, createProfileUC, editProfileUC, bestowAwardUC, resolveProfileUC)
	profileHandler.RegisterRoutes(r, middleware.RequireAuth(authenticateUC, metrics, handler.ScopeProfile))

	// --- gRPC Server ---
	profileGRPCSvc := profilegrpc.NewProfileGRPCService(profilegrpc.ProfileGRPCDeps{
		Auth:             authenticateUC,
		AuthObserver:     metrics,
		GetProfileUC:     getProfileUC,
		ListProfilesUC:   listProfilesUC,
		CreateProfileUC:  createProfileUC,
		EditProfileUC:    editProfileUC,
		BestowAwardUC:    bestowAwardUC,
		ResolveProfileUC: resolveProfileUC,
	})

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(telemetry.GRPCUnaryServerInterceptor(logger, metrics)))
	profilegrpc.RegisterProfileServiceServer(grpcServer, profileGRPCSvc)

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			slog.Error("failed to listen for gRPC", "error", err)
			os.Exit(1)
		}
		slog.Info("gRPC server starting", "port", cfg.GRPC.Port)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- REST Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("REST server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("REST server failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down servers...")

	grpcServer.GracefulStop()
	slog.Info("gRPC server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("REST server forced to shutdown", "error", err)
	}
	slog.Info("servers exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
