package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Harshitk-cp/opsconsole/internal/client"
	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/handler"
	"github.com/Harshitk-cp/opsconsole/internal/hub"
	"github.com/Harshitk-cp/opsconsole/internal/metrics"
	"github.com/Harshitk-cp/opsconsole/internal/service"
	"github.com/Harshitk-cp/opsconsole/internal/transport"
	"github.com/Harshitk-cp/opsconsole/libs/health"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
	"github.com/Harshitk-cp/opsconsole/pkg/middleware"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"service":     cfg.Service.Name,
		"version":     cfg.Service.Version,
		"environment": cfg.Service.Environment,
	}).Info("Starting operations console")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Console stopped with error")
	}

	logger.Info("Console successfully shutdown")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	collector := metrics.NewPrometheusCollector()

	// Upstream API and health poller
	api := client.New(cfg.Upstreams, cfg.Client, logger, client.WithRecorder(collector))
	poller := health.NewPoller(health.Config{
		Interval:       cfg.Monitor.PollInterval,
		RequestTimeout: cfg.Monitor.RequestTimeout,
	}, logger, service.MonitorTargets(cfg.Upstreams)...)

	// Live monitor feed
	feed := hub.NewHub(cfg.WebSocket, collector, logger)

	// Initialize services
	console := service.NewConsoleService(cfg, api, poller, feed, collector, logger)
	authService := service.NewAuthService(cfg.Auth)
	rateLimiter := service.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	// Initialize HTTP handlers
	wsHandler := handler.NewWebSocketHandler(feed, console.InitialMessage, cfg.HTTP.CORSAllowOrigin)
	httpHandler := handler.NewHTTPHandler(cfg, console, authService, rateLimiter, collector, wsHandler)

	// Set up HTTP server
	httpServer := transport.NewHTTPServer(cfg.HTTP, httpHandler, logger)

	// Apply middleware
	httpServer.Use(middleware.RequestID(logger))
	httpServer.Use(middleware.Recovery)
	httpServer.Use(middleware.Logger)
	httpServer.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigin))

	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		feed.Run()
		return nil
	})

	errgrp.Go(func() error {
		if err := console.StartMonitoring(); err != nil {
			return err
		}
		return httpServer.Start()
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down console...")

		// No snapshot is applied once monitoring has stopped
		console.StopMonitoring()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		err := httpServer.Shutdown(shutdownCtx)

		feed.Close()
		return err
	})

	return errgrp.Wait()
}
