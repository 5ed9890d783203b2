package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mr1hm/go-asteroid-impact/internal/api"
	"github.com/mr1hm/go-asteroid-impact/internal/catalog"
	"github.com/mr1hm/go-asteroid-impact/internal/config"
	"github.com/mr1hm/go-asteroid-impact/internal/geocoding"
	"github.com/mr1hm/go-asteroid-impact/internal/impact"
	"github.com/mr1hm/go-asteroid-impact/internal/ingestion"
	"github.com/mr1hm/go-asteroid-impact/internal/logging"
	"github.com/mr1hm/go-asteroid-impact/internal/metrics"
	"github.com/mr1hm/go-asteroid-impact/internal/neows"
	"github.com/mr1hm/go-asteroid-impact/internal/physics"
	"github.com/mr1hm/go-asteroid-impact/internal/population"
	"github.com/mr1hm/go-asteroid-impact/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := slog.Default()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
		logging.Fatalf("Failed to create database directory: %v", err)
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clock := clockwork.NewRealClock()

	nasa := neows.NewClient(cfg.NASA.BaseURL, cfg.NASA.APIKey, cfg.NASA.Timeout, clock, m, logger)
	asteroids := catalog.New(nasa, db, cfg.NASA.CacheTTL, clock, m, logger)

	geoService := geocoding.NewService(
		geocoding.NewDistanceMatrixClient(cfg.Geocoding.DistanceMatrixURL, cfg.Geocoding.DistanceMatrixKey, cfg.Geocoding.Timeout, m, logger),
		geocoding.NewOverpassClient(cfg.Geocoding.OverpassURL, cfg.Geocoding.OverpassTimeout, m, logger),
		logger,
	)
	geo := geocoding.NewCachedGeocoder(geoService, cfg.Geocoding.CacheSize, m)

	policy, err := population.ParsePolicy(cfg.Simulation.PopulationPolicy)
	if err != nil {
		logging.Fatalf("Invalid population policy: %v", err)
	}
	sim := impact.NewSimulator(
		physics.NewEngine(physics.DefaultConstants()),
		population.NewEstimator(cfg.Simulation.PopulationDensity, policy),
		geo,
		asteroids,
		impact.Options{
			GeocodeTimeout:    cfg.Geocoding.Timeout,
			EnrichTimeout:     cfg.Simulation.EnrichTimeout,
			EnrichMaxRadiusKm: cfg.Simulation.EnrichMaxRadiusKm,
		},
		m,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start ingestion manager
	mgr := ingestion.NewManager(cfg, nasa, db, clock, m)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(m.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.Use(api.RateLimitMiddleware(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst))

	handler := api.NewHandler(sim, asteroids, geo, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
