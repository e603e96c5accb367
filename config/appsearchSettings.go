package config

import "time"

// AppSearchSettings controls how records are pushed to the search engine
type AppSearchSettings struct {
	Backend         string // "bleve" or "elasticsearch"
	IndexPath       string // bleve only
	IndexPrefix     string // elasticsearch only
	ChunkSize       int
	IndexingEnabled bool
	RateLimit       float64 // engine calls per second, 0 disables limiting
	MaxAttempts     int
	DrainBatchSize  int
	DrainSchedule   string
	DrainTimeout    time.Duration
}

const (
	SearchBackendBleve         = "bleve"
	SearchBackendElasticsearch = "elasticsearch"
)

// LoadAppSearchSettings reads the APPSEARCH_* and related variables
func LoadAppSearchSettings() AppSearchSettings {
	settings := AppSearchSettings{
		Backend:         GetEnvOrDefault("SEARCH_BACKEND", SearchBackendBleve),
		IndexPath:       GetEnvOrDefault("BLEVE_INDEX_PATH", "./bleve_data"),
		IndexPrefix:     GetEnv("APPSEARCH_INDEX_PREFIX"),
		ChunkSize:       GetEnvInt("APPSEARCH_CHUNK_SIZE", 100),
		IndexingEnabled: GetEnvBool("APPSEARCH_INDEXING_ENABLED", true),
		RateLimit:       float64(GetEnvInt("APPSEARCH_RATE_LIMIT", 10)),
		MaxAttempts:     GetEnvInt("APPSEARCH_MAX_ATTEMPTS", 5),
		DrainBatchSize:  GetEnvInt("OUTBOX_DRAIN_BATCH_SIZE", 500),
		DrainSchedule:   GetEnvOrDefault("OUTBOX_DRAIN_SCHEDULE", "@every 1m"),
		DrainTimeout:    time.Duration(GetEnvInt("OUTBOX_DRAIN_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if settings.ChunkSize <= 0 {
		settings.ChunkSize = 100
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 5
	}
	if settings.DrainBatchSize <= 0 {
		settings.DrainBatchSize = 500
	}
	return settings
}
