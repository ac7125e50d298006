package main

import (
	"fmt"
	"log"
	"net/http"

	"docbench/internal/analyzer"
	"docbench/internal/analyzer/contentu"
	"docbench/internal/analyzer/docintel"
	"docbench/internal/analyzer/mistral"
	"docbench/internal/auth"
	"docbench/internal/config"
	"docbench/internal/handler"
	"docbench/internal/llm"
	"docbench/internal/router"
	"docbench/internal/service"
	s3storage "docbench/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize storage for URL-based backend input
	s3Client, err := s3storage.NewS3Client(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize auth and the shared description step
	tokens := auth.NewTokenSource(&cfg.Auth)
	describer := llm.NewChatDescriber(&cfg.LLM, tokens)

	// The OCR+chat backend summarizes through its own chat endpoint,
	// derived from the OCR endpoint's host.
	mistralChatEndpoint, err := mistral.ChatEndpoint(cfg.Mistral.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to derive chat endpoint: %w", err)
	}
	mistralDescriber := llm.NewChatDescriberWithEndpoint(&cfg.LLM, tokens, mistralChatEndpoint, cfg.Mistral.Model)

	// Initialize analyzers
	registry := analyzer.NewRegistry()
	registry.Register(contentu.NewAnalyzer(&cfg.ContentU, &cfg.Poll, s3Client, tokens, describer))
	registry.Register(docintel.NewAnalyzer(&cfg.DocIntel, &cfg.Poll, describer))
	registry.Register(mistral.NewAnalyzer(&cfg.Mistral, tokens, mistralDescriber))

	// Initialize services
	store := service.NewRunStore()
	benchmarkSvc := service.NewBenchmarkService(registry, store, cfg.Benchmark)

	// Initialize handlers
	benchmarkH := handler.NewBenchmarkHandler(benchmarkSvc)
	healthH := handler.NewHealthHandler(registry)

	// Setup router
	r := router.Setup(cfg, benchmarkH, healthH)

	// Runs block until every selected backend finishes polling, so the
	// write timeout must cover the full poll budget.
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
