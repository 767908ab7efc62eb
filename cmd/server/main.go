package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shelfwatch/backend/config"
	httpDelivery "github.com/shelfwatch/backend/internal/delivery/http"
	"github.com/shelfwatch/backend/internal/infrastructure/amazon"
	"github.com/shelfwatch/backend/internal/infrastructure/cache"
	"github.com/shelfwatch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Shelfwatch Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Default marketplace: %s", cfg.Marketplace.DefaultDomain)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	searchClient := amazon.NewClient(cfg.Marketplace.RequestsPerMinute)
	extractor := amazon.NewExtractor(cfg.Matching.EnableDebugLogging)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		searchClient.SetDebug(true)
		log.Printf("Search client debug mode enabled")
	}

	// Initialize usecase layer
	lookupService := usecase.NewLookupService(
		memoryCache,
		searchClient,
		extractor,
		usecase.LookupConfig{
			DefaultDomain:       cfg.Marketplace.DefaultDomain,
			CacheTTL:            cfg.Cache.TTL,
			AcceptanceThreshold: cfg.Matching.AcceptanceThreshold,
			EnableFuzzyMatching: cfg.Matching.EnableFuzzyMatching,
			EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
		},
	)

	log.Printf("Matching: threshold=%.2f, fuzzy=%v, debug=%v",
		cfg.Matching.AcceptanceThreshold,
		cfg.Matching.EnableFuzzyMatching,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(lookupService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
