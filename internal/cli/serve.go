package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
	"github.com/soundphilosopher/basic-grpc-service/internal/controller"
	"github.com/soundphilosopher/basic-grpc-service/internal/metrics"
	"github.com/soundphilosopher/basic-grpc-service/internal/registry"
	"github.com/soundphilosopher/basic-grpc-service/internal/server"
)

const (
	serviceName     = "basic.v1.BasicService"
	shutdownTimeout = 5 * time.Second
)

// runServe listens on the configured address and serves until SIGINT or
// SIGTERM.
func runServe(ctx context.Context, cfg *Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}
	return serve(ctx, cfg, lis)
}

// serve runs the gRPC server on lis, plus the ops HTTP server when enabled,
// until ctx is done or either server fails.
//
// Shutdown order:
//  1. health flips to NOT_SERVING
//  2. ops HTTP server shuts down
//  3. gRPC GracefulStop, forced Stop after shutdownTimeout
func serve(ctx context.Context, cfg *Config, lis net.Listener) error {
	logger := slog.Default().With("component", "serve")

	collector := metrics.NewCollector()
	reg := registry.New(cfg.Background.RegistryLimit)
	coord := controller.New(controller.Config{
		ServiceVersion:    cfg.Background.ServiceVersion,
		MinDelay:          cfg.Background.MinDelay,
		MaxDelay:          cfg.Background.MaxDelay,
		MaxConcurrentJobs: cfg.Server.MaxConcurrentJobs,
	},
		controller.WithTracker(reg),
		controller.WithRecorder(collector),
		controller.WithLogger(slog.Default().With("component", "coordinator")),
	)

	var opts []grpc.ServerOption
	tlsEnabled := cfg.Server.TLSCert != ""
	if tlsEnabled {
		creds, err := credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	pb.RegisterBasicServiceServer(grpcServer, server.NewServer(coord, collector))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.Server.Reflection {
		reflection.Register(grpcServer)
		logger.Info("server reflection enabled", "codec", pb.CodecName)
	}

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           server.NewOpsHandler(reg, cfg.HTTP.AllowedOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", lis.Addr().String(), "tls", tlsEnabled)
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})

	if httpServer != nil {
		g.Go(func() error {
			logger.Info("ops HTTP server listening", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops HTTP server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if httpServer != nil {
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops HTTP shutdown", "error", err)
			}
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logger.Warn("graceful stop timed out, closing open streams")
			grpcServer.Stop()
		}
		return nil
	})

	err := g.Wait()
	logger.Info("Server stopped")
	return err
}
