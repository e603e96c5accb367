package appsearch

import "context"

// SearchRequest is an engine-neutral query. An empty Query matches everything;
// Filters are exact field matches.
type SearchRequest struct {
	Query   string
	Filters map[string]string
	From    int
	Size    int
	SortBy  []string // field names, "-" prefix for descending
}

type SearchHit struct {
	ID     string   `json:"id"`
	Score  float64  `json:"score"`
	Fields Document `json:"fields,omitempty"`
}

type SearchResult struct {
	Total uint64      `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

// Engine is a search backend holding one index per engine name
type Engine interface {
	IndexDocuments(ctx context.Context, engineName string, docs []Document) error
	DeleteDocuments(ctx context.Context, engineName string, ids []string) error
	Search(ctx context.Context, engineName string, req SearchRequest) (*SearchResult, error)
	// GetDocument returns ErrDocumentNotFound when id is not in the engine
	GetDocument(ctx context.Context, engineName, id string) (Document, error)
	DropEngine(ctx context.Context, engineName string) error
	Close() error
}
