package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"cartstream.app/ingest/common/id"
	"cartstream.app/ingest/common/logger"
	"cartstream.app/ingest/common/otel"
	"cartstream.app/ingest/core/config"
	"cartstream.app/ingest/core/db"
	"cartstream.app/ingest/internal/http/middleware"
	httprouter "cartstream.app/ingest/internal/http/router"
	"cartstream.app/ingest/internal/rows"
	"cartstream.app/ingest/internal/service"
	"cartstream.app/ingest/internal/sink"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "ingest starting",
		"env", cfg.Env,
		"service", cfg.OTel.ServiceName,
		"revision", cfg.Revision,
	)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	writer := sink.NewPostgresWriter(database)
	eventRouter := service.NewEventRouter(writer, service.SinkSet{
		Raw:       sink.Destination{Dataset: cfg.Sinks.Dataset, Table: cfg.Sinks.RawTable},
		Processed: sink.Destination{Dataset: cfg.Sinks.Dataset, Table: cfg.Sinks.ProcessedTable},
		Error:     sink.Destination{Dataset: cfg.Sinks.Dataset, Table: cfg.Sinks.ErrorTable},
	}, rows.New(cfg.Source), slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, eventRouter)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, eventRouter service.EventRouter) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, eventRouter, httprouter.RouterConfig{
		Revision: cfg.Revision,
	})

	return router
}

const banner = `
                 _       _
  ___ __ _ _ __| |_ ___| |_ _ __ ___  __ _ _ __ ___
 / __/ _' | '__| __/ __| __| '__/ _ \/ _' | '_ ' _ \
| (_| (_| | |  | |_\__ \ |_| | |  __/ (_| | | | | | |
 \___\__,_|_|   \__|___/\__|_|  \___|\__,_|_| |_| |_|
                                      ingest pipeline
`
