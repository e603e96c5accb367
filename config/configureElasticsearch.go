package config

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// InitElasticsearch initializes the Elasticsearch client and checks the cluster with the Info API
func InitElasticsearch(ctx context.Context) (*elasticsearch.Client, error) {
	esAddress := GetEnvOrDefault("ELASTICSEARCH_ADDRESS", "http://localhost:9200")

	cfg := elasticsearch.Config{
		Addresses: []string{esAddress},
		Username:  GetEnv("ELASTICSEARCH_USERNAME"),
		Password:  GetEnv("ELASTICSEARCH_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing Elasticsearch: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info request failed: %s", res.Status())
	}

	Logger.Info("Elasticsearch is up and running", zap.String("address", esAddress))
	return client, nil
}
