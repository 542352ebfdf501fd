// Package main provides the entry point for the inventory-dashboard server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/api"
	"github.com/kneutral-org/inventory-dashboard/internal/config"
	"github.com/kneutral-org/inventory-dashboard/internal/filter"
	"github.com/kneutral-org/inventory-dashboard/internal/health"
	"github.com/kneutral-org/inventory-dashboard/internal/inventory"
	"github.com/kneutral-org/inventory-dashboard/internal/logging"
	"github.com/kneutral-org/inventory-dashboard/internal/metrics"
	"github.com/kneutral-org/inventory-dashboard/internal/middleware"
	"github.com/kneutral-org/inventory-dashboard/internal/netbox"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

const serviceName = "inventory-dashboard"

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(serviceName, cfg.LogLevel)
	if cfg.LogPretty {
		logger = logging.NewPrettyLogger(serviceName, cfg.LogLevel)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server exited properly")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	source := newSource(cfg, logger)
	converter := inventory.NewConverter(
		inventory.WithRouterOSTag(cfg.RouterOSTag),
		inventory.WithLogger(logger),
	)

	cache := topology.NewCache(converter.Loader(source), topology.CacheConfig{
		TTL:            cfg.TopologyTTL,
		RefreshTimeout: cfg.TopologyRefreshTimeout,
		Logger:         logger,
	})

	filters, err := filter.NewEvaluator(filter.WithCacheCapacity(cfg.FilterCacheSize))
	if err != nil {
		return fmt.Errorf("create filter evaluator: %w", err)
	}

	healthServer := health.NewServer(health.Options{MaxMessageSize: cfg.GRPCMaxMessageSize}, logger)
	cache.OnRefresh = healthServer.ObserveRefresh

	settings := api.Settings{
		ClientID: cfg.AuthClientID,
		TokenURL: cfg.AuthTokenURL,
		AuthURL:  cfg.AuthURL,
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiServer := &http.Server{
		Addr:         cfg.APIAddr(),
		Handler:      newAPIRouter(api.NewHandler(cache, filters, settings, logger), cfg.MaxQueryLength, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TopologyRefreshTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	mgmtServer := &http.Server{
		Addr:         cfg.MgmtAddr(),
		Handler:      newMgmtRouter(cache, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr(), err)
	}

	errCh := make(chan error, 3)
	for _, srv := range []struct {
		name   string
		server *http.Server
	}{{"api", apiServer}, {"mgmt", mgmtServer}} {
		go func() {
			logger.Info().Str("server", srv.name).Str("addr", srv.server.Addr).Msg("starting HTTP server")
			if err := srv.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", srv.name, err)
			}
		}()
	}
	go func() {
		logger.Info().Str("addr", cfg.GRPCAddr()).Msg("starting gRPC health server")
		if err := healthServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// Warm the cache so the first API request and the health status do not
	// wait for a full inventory fetch.
	go func() {
		if _, err := cache.Get(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("initial topology build failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
	}

	logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	healthServer.Stop(ctx)
	if err := apiServer.Shutdown(ctx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("api server forced to shutdown: %w", err))
	}
	if err := mgmtServer.Shutdown(ctx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("mgmt server forced to shutdown: %w", err))
	}
	return runErr
}

func newSource(cfg *config.Config, logger zerolog.Logger) inventory.Source {
	if cfg.InventoryFile != "" {
		logger.Info().Str("path", cfg.InventoryFile).Msg("using inventory file")
		return inventory.NewFileSource(cfg.InventoryFile)
	}
	logger.Info().Str("endpoint", cfg.NetBoxEndpoint).Msg("using NetBox inventory")
	return netbox.New(cfg.NetBoxEndpoint, cfg.NetBoxToken,
		netbox.WithTimeout(cfg.NetBoxTimeout),
		netbox.WithLogger(logger),
	)
}

func newAPIRouter(handler *api.Handler, maxQueryLength int, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger))
	router.Use(logging.RequestLogger(logger))

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.QueryLimit(maxQueryLength, logger))
	handler.RegisterRoutes(apiV1)
	return router
}

// newMgmtRouter serves liveness, readiness and metrics. Readiness reports
// whether a topology snapshot is currently cached.
func newMgmtRouter(cache *topology.Cache, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		topo, loadedAt, ok := cache.Peek()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "pending"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"loadedAt": loadedAt,
			"devices":  topo.Summary().Devices,
		})
	})
	metrics.RegisterMetricsEndpoint(router)

	logger.Debug().Msg("management routes registered")
	return router
}
