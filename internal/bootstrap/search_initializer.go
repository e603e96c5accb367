package bootstrap

import (
	"context"
	"fmt"

	"car-search-backend/appsearch"
	bleveServices "car-search-backend/bleve/services"
	"car-search-backend/cars/repositories"
	carServices "car-search-backend/cars/services"
	"car-search-backend/config"
	elasticServices "car-search-backend/elastic/services"

	"go.uber.org/zap"
)

// NewSearchEngine builds the engine selected by settings.Backend
func NewSearchEngine(ctx context.Context, settings config.AppSearchSettings) (appsearch.Engine, error) {
	switch settings.Backend {
	case config.SearchBackendBleve:
		config.Logger.Info("Using bleve search engine", zap.String("path", settings.IndexPath))
		return bleveServices.NewIndexingService(config.Logger, settings.IndexPath), nil
	case config.SearchBackendElasticsearch:
		client, err := config.InitElasticsearch(ctx)
		if err != nil {
			return nil, err
		}
		return elasticServices.NewElasticEngine(client, config.Logger,
			elasticServices.WithIndexPrefix(settings.IndexPrefix),
			elasticServices.WithRefresh(config.GetEnv("ELASTICSEARCH_REFRESH")),
			elasticServices.WithIndexMapping(carServices.CarEngineName, carServices.CarElasticsearchProperties()),
		), nil
	default:
		return nil, fmt.Errorf("unknown SEARCH_BACKEND %q", settings.Backend)
	}
}

// NewRegistry registers every searchable model
func NewRegistry() (*appsearch.Registry, error) {
	registry := appsearch.NewRegistry()
	if err := carServices.RegisterCarSearch(registry); err != nil {
		return nil, fmt.Errorf("register car search: %w", err)
	}
	return registry, nil
}

// IndexSearchData re-indexes every searchable model from the database
func IndexSearchData(ctx context.Context, carRepo repositories.CarRepository, engine appsearch.Engine, sync *appsearch.Synchroniser) {
	count, err := carServices.ReindexCars(ctx, carRepo, engine, sync)
	if err != nil {
		config.Logger.Error("Failed to re-index cars", zap.Error(err))
		return
	}
	config.Logger.Info("Re-indexed cars", zap.Int("count", count))
}
