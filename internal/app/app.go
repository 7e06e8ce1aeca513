// Package app wires configuration, storage, services, and handlers into a
// runnable application.
package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/handlers"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/openfoodfacts"
	"github.com/ternarybob/safebite/internal/services/chat"
	"github.com/ternarybob/safebite/internal/services/enrichment"
	"github.com/ternarybob/safebite/internal/services/events"
	"github.com/ternarybob/safebite/internal/services/llm"
	"github.com/ternarybob/safebite/internal/services/products"
	"github.com/ternarybob/safebite/internal/services/scheduler"
	"github.com/ternarybob/safebite/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EventService      interfaces.EventService
	LookupClient      interfaces.ProductLookup
	CompletionService interfaces.CompletionService
	EnrichmentService interfaces.EnrichmentService
	ProductService    interfaces.ProductService
	ChatService       interfaces.ChatService
	RetentionService  *scheduler.RetentionService

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	ProductHandler *handlers.ProductHandler
	StatsHandler   *handlers.StatsHandler
	ChatHandler    *handlers.ChatHandler
}

// New creates and wires the application.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EventService = events.NewService(logger)

	a.LookupClient = openfoodfacts.NewClient(
		openfoodfacts.WithBaseURL(config.OpenFoodFacts.BaseURL),
		openfoodfacts.WithTimeout(common.ParseDurationOrDefault(config.OpenFoodFacts.RequestTimeout, openfoodfacts.DefaultTimeout)),
		openfoodfacts.WithRateLimit(config.OpenFoodFacts.RateLimit),
		openfoodfacts.WithLogger(logger),
	)

	completionService, err := llm.NewCompletionService(config, storageManager, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize completion service: %w", err)
	}
	a.CompletionService = completionService

	a.EnrichmentService = enrichment.NewService(
		storageManager.ProductStorage(),
		completionService,
		a.EventService,
		logger,
		completionTimeout(config),
	)

	a.ProductService = products.NewService(
		a.LookupClient,
		storageManager.ProductStorage(),
		a.EnrichmentService,
		a.EventService,
		logger,
	)

	a.ChatService = chat.NewService(
		completionService,
		storageManager.ChatStorage(),
		storageManager.ProductStorage(),
		logger,
		config.Chat.HistoryLimit,
	)

	a.RetentionService = scheduler.NewRetentionService(
		&config.Retention,
		storageManager.ProductStorage(),
		logger,
	)
	if err := a.RetentionService.Start(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start retention sweep: %w", err)
	}

	a.APIHandler = handlers.NewAPIHandler(completionService, logger)
	a.ProductHandler = handlers.NewProductHandler(a.ProductService, a.EnrichmentService, logger)
	a.StatsHandler = handlers.NewStatsHandler(storageManager.ProductStorage(), logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, logger)

	logger.Info().Msg("Application initialized")

	return a, nil
}

// completionTimeout picks the per-call enrichment timeout for the configured
// provider.
func completionTimeout(config *common.Config) time.Duration {
	switch config.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		return common.ParseDurationOrDefault(config.Claude.Timeout, 60*time.Second)
	default:
		return common.ParseDurationOrDefault(config.OpenAI.Timeout, 60*time.Second)
	}
}

// Close releases application resources in reverse initialization order.
func (a *App) Close() error {
	if a.RetentionService != nil {
		a.RetentionService.Stop()
	}
	if a.EventService != nil {
		a.EventService.Close()
	}
	if a.CompletionService != nil {
		a.CompletionService.Close()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}
