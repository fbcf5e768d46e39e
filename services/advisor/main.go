// Copyright (C) 2026 Wayfinder AI (dev@wayfinderai.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/WayfinderAI/WayfinderCoach/pkg/logging"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/cache"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/coherence"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/graph"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/handlers"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/middleware"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/observability"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/phases"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/routes"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/search"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/session"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/signals"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/storage"
	"github.com/WayfinderAI/WayfinderCoach/services/advisor/suggest"
	"github.com/WayfinderAI/WayfinderCoach/services/llm"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "wayfinder-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("advisor-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newGraphAdapter builds the concept-graph adapter from the environment.
// Without a valid WAYFINDER_WEAVIATE_URL the engine runs graph-free.
func newGraphAdapter() graph.Adapter {
	rawURL := strings.Trim(os.Getenv("WAYFINDER_WEAVIATE_URL"), "\"' ")
	if rawURL == "" || !strings.Contains(rawURL, "http") {
		slog.Info("WAYFINDER_WEAVIATE_URL not set. Running without the knowledge graph.")
		return nil
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WAYFINDER_WEAVIATE_URL is invalid. Running without the knowledge graph.",
			"url", rawURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client, running without the knowledge graph", "error", err)
		return nil
	}
	return graph.NewWeaviateAdapter(client)
}

func main() {
	port := os.Getenv("ADVISOR_PORT")
	if port == "" {
		port = "12310"
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("WAYFINDER_LOG_LEVEL")),
		Service: "advisor",
		LogDir:  os.Getenv("WAYFINDER_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	// --- Static configuration: refuses startup when broken ---
	extractor, err := signals.NewExtractor()
	if err != nil {
		log.Fatalf("FATAL: Could not load signal patterns: %v", err)
	}
	fallbackTable, err := suggest.LoadFallbackTable()
	if err != nil {
		log.Fatalf("FATAL: Could not load the fallback table: %v", err)
	}
	engine, err := suggest.NewEngine(fallbackTable)
	if err != nil {
		log.Fatalf("FATAL: Could not build the scoring engine: %v", err)
	}
	pipelines, err := phases.LoadPipelines()
	if err != nil {
		log.Fatalf("FATAL: Could not load pipeline definitions: %v", err)
	}

	// --- Persistence ---
	dataDir := os.Getenv("WAYFINDER_DATA_DIR")
	if dataDir == "" {
		dataDir = "/data/wayfinder/phases"
	}
	store, err := storage.OpenBadger(storage.DefaultBadgerConfig(dataDir))
	if err != nil {
		log.Fatalf("FATAL: Could not open the phase store: %v", err)
	}
	defer store.Close()

	// --- External collaborators: each one optional ---
	graphAdapter := newGraphAdapter()
	searchRegistry := search.NewRegistryFromEnv()
	lookupCache := cache.New(cache.DefaultOptions())

	llmClient, err := llm.NewFromEnv()
	if err != nil {
		log.Fatalf("FATAL: Could not initialize the LLM client: %v", err)
	}

	orchestrator, err := phases.NewOrchestrator(phases.OrchestratorConfig{
		Pipelines: pipelines,
		Store:     store,
		Graph:     graphAdapter,
		Cache:     lookupCache,
		Search:    searchRegistry,
	})
	if err != nil {
		log.Fatalf("FATAL: Could not build the phase orchestrator: %v", err)
	}

	updater := coherence.NewUpdater(llmClient, extractor)
	deps := handlers.Deps{
		Registry:     session.NewRegistry(),
		Extractor:    extractor,
		Engine:       engine,
		Updater:      updater,
		Graph:        graphAdapter,
		Orchestrator: orchestrator,
		Cache:        lookupCache,
		Search:       searchRegistry,
		Metrics:      observability.DefaultMetrics,
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("advisor-service"))

	auth := middleware.ProviderFromToken(os.Getenv("WAYFINDER_API_TOKEN"))
	routes.SetupRoutes(router, deps, auth)

	slog.Info("Starting the advisor server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
