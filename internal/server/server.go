package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	swaggerUI "github.com/tx7do/kratos-swagger-ui"

	"github.com/go-tangra/go-tangra-hwreport/internal/config"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
	"github.com/go-tangra/go-tangra-hwreport/internal/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Run starts the gRPC health endpoint and the HTTP collector and blocks
// until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, openApiData []byte) error {
	logger := logging.Get("server")

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	handler := NewHandler(db, cfg.ClientSecret, cfg.ApiSecret, cfg.MaxBodyBytes)

	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ClientSecretInterceptor(cfg.ClientSecret)),
		grpc.ChainStreamInterceptor(ClientSecretStreamInterceptor(cfg.ClientSecret)),
	)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen gRPC on %s: %w", cfg.Listen, err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
	}()

	if cfg.RetentionDays > 0 {
		go runPurgeLoop(ctx, logger, db, cfg.RetentionDays, cfg.PurgeInterval)
	}

	httpSrv := kratoshttp.NewServer(kratoshttp.Address(cfg.HTTPListen))

	// Swagger goes first so its prefix is not shadowed by the API routes.
	if cfg.EnableSwagger && len(openApiData) > 0 {
		swaggerUI.RegisterSwaggerUIServerWithOption(
			httpSrv,
			swaggerUI.WithTitle("Hardware Report Collector"),
			swaggerUI.WithMemoryData(openApiData, "yaml"),
		)
		logger.Info("swagger UI enabled", "url", fmt.Sprintf("http://%s/docs/", cfg.HTTPListen))
	}

	routes := handler.Routes()
	httpSrv.HandlePrefix("/upload/", routes)
	httpSrv.HandlePrefix("/v1/", routes)

	go func() {
		if err := httpSrv.Start(ctx); err != nil {
			logger.Error("HTTP server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = httpSrv.Stop(context.Background())
	}()

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	logger.Info("collector listening", "grpc", cfg.Listen, "http", cfg.HTTPListen, "db", cfg.DatabasePath)
	if cfg.RetentionDays > 0 {
		logger.Info("retention enabled", "days", cfg.RetentionDays, "interval", cfg.PurgeInterval)
	}

	return grpcSrv.Serve(lis)
}

func runPurgeLoop(ctx context.Context, logger *log.Logger, db *store.Store, retentionDays int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			olderThan := time.Duration(retentionDays) * 24 * time.Hour
			n, err := db.Purge(ctx, olderThan)
			if err != nil {
				logger.Error("purge failed", "err", err)
			} else if n > 0 {
				logger.Info("purged reports", "count", n, "older_than_days", retentionDays)
			}
		}
	}
}
