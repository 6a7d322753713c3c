package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aquaculture-platform/internal/config"
	"aquaculture-platform/internal/handlers"
	"aquaculture-platform/internal/mqtt"
	"aquaculture-platform/internal/repository"
	"aquaculture-platform/internal/services"
	"aquaculture-platform/internal/weather"
	"aquaculture-platform/pkg/database"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pond-analyzer", version, cfg.LogLevel())

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting pond analysis API server", logging.Fields{
		"version":          version,
		"server_host":      cfg.Server.Host,
		"server_port":      cfg.Server.Port,
		"db_driver":        cfg.Database.Driver,
		"weather_enabled":  cfg.Weather.APIKey != "",
		"mqtt_enabled":     cfg.MQTT.Broker != "",
		"default_location": cfg.Analysis.DefaultLocation,
	})

	metricsCollector := metrics.NewCollector("aquaculture", nil)

	db, err := database.Open(cfg.DatabaseConnConfig(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, database.DirectionUp); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to apply migrations", logging.Fields{}, err)
		}
	}

	analysisRepo := repository.NewAnalysisRepository(db, logger, metricsCollector)

	var provider weather.Provider
	if cfg.Weather.APIKey != "" {
		provider = weather.NewClient(weather.Config{
			APIKey:          cfg.Weather.APIKey,
			BaseURL:         cfg.Weather.BaseURL,
			Timeout:         cfg.Weather.Timeout,
			MaxRetryElapsed: cfg.Weather.MaxRetryElapsed,
		}, logger, metricsCollector)
	} else {
		logger.Warn(ctx, "[STARTUP_NO_WEATHER] WEATHER_API_KEY not set, analyses run without weather", logging.Fields{})
		provider = weather.NewDisabled(metricsCollector)
	}

	analysisService := services.NewAnalysisService(analysisRepo, provider, logger, metricsCollector).
		WithDefaultLocation(cfg.Analysis.DefaultLocation)

	publishCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	var (
		publisher *mqtt.Publisher
		broker    handlers.BrokerStatus
	)
	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ConnectTimeout: cfg.MQTT.Timeout,
		}, logger)
		if err != nil {
			// publishing is best effort; serve analyses without it
			logger.Error(ctx, "[STARTUP_MQTT_ERROR] Report publishing disabled", logging.Fields{
				"broker": cfg.MQTT.Broker,
			}, err)
		} else {
			defer mqttClient.Close()

			publisher = mqtt.NewPublisher(mqttClient.Native(), mqtt.PublisherConfig{
				ReportTopic: cfg.MQTT.TopicReports,
				QoS:         byte(cfg.MQTT.QoS),
				Timeout:     cfg.MQTT.Timeout,
			}, logger, metricsCollector)
			publisher.Start(publishCtx)
			analysisService.WithPublisher(publisher)
			broker = mqttClient
		}
	}

	pondHandler := handlers.NewPondHandler(analysisService, logger, metricsCollector)
	if broker != nil {
		pondHandler.WithBroker(broker)
	}

	router := mux.NewRouter()
	router.Use(handlers.RequestID(), handlers.InFlight(metricsCollector), handlers.Recover(logger, metricsCollector))

	pondHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	stopPublisher()
	if publisher != nil {
		publisher.Wait()
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
