package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"car-search-backend/appsearch"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

var ErrBulkRejected = errors.New("elasticsearch rejected bulk items")

var _ appsearch.Engine = (*ElasticEngine)(nil)

// ElasticEngine stores each engine in an Elasticsearch index named prefix+engine
type ElasticEngine struct {
	client   *elasticsearch.Client
	logger   *zap.Logger
	prefix   string
	refresh  string
	mappings map[string]map[string]interface{}

	mu    sync.Mutex
	ready map[string]bool
}

type Option func(*ElasticEngine)

// WithIndexPrefix namespaces every index, e.g. "staging-" gives "staging-cars"
func WithIndexPrefix(prefix string) Option {
	return func(e *ElasticEngine) { e.prefix = prefix }
}

// WithRefresh sets the bulk refresh policy ("true", "false", "wait_for")
func WithRefresh(refresh string) Option {
	return func(e *ElasticEngine) { e.refresh = refresh }
}

// WithIndexMapping gives an engine explicit field mappings. Its index is
// created with them before the first write and again after DropEngine.
// Text fields with a "keyword" sub-field are sorted on that sub-field.
func WithIndexMapping(engineName string, properties map[string]interface{}) Option {
	return func(e *ElasticEngine) { e.mappings[engineName] = properties }
}

func NewElasticEngine(client *elasticsearch.Client, logger *zap.Logger, opts ...Option) *ElasticEngine {
	e := &ElasticEngine{
		client:   client,
		logger:   logger,
		mappings: make(map[string]map[string]interface{}),
		ready:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IndexName maps an engine name to its Elasticsearch index
func (e *ElasticEngine) IndexName(engineName string) string {
	return e.prefix + engineName
}

// ensureIndex creates the index with its mapping when it does not exist yet.
// Engines without a mapping are left to dynamic mapping.
func (e *ElasticEngine) ensureIndex(ctx context.Context, engineName string) error {
	properties, ok := e.mappings[engineName]
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready[engineName] {
		return nil
	}

	index := e.IndexName(engineName)
	res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	if res.Body != nil {
		res.Body.Close()
	}

	switch res.StatusCode {
	case http.StatusOK:
		e.ready[engineName] = true
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s failed with %s", index, res.Status())
	}

	payload, err := json.Marshal(map[string]interface{}{
		"mappings": map[string]interface{}{"properties": properties},
	})
	if err != nil {
		return err
	}

	res, err = e.client.Indices.Create(index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := readResponseBody(res)
		// Another process created it first
		if !strings.Contains(body, "resource_already_exists_exception") {
			return fmt.Errorf("create index %s failed with %s: %s", index, res.Status(), body)
		}
	} else {
		e.logger.Info("Created Elasticsearch index", zap.String("index", index))
	}

	e.ready[engineName] = true
	return nil
}

type bulkAction struct {
	Index  *bulkMeta `json:"index,omitempty"`
	Delete *bulkMeta `json:"delete,omitempty"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

func (e *ElasticEngine) IndexDocuments(ctx context.Context, engineName string, docs []appsearch.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			return appsearch.ErrEmptyDocumentID
		}
		if err := enc.Encode(bulkAction{Index: &bulkMeta{Index: e.IndexName(engineName), ID: id}}); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document %s: %w", id, err)
		}
	}

	return e.bulk(ctx, &buf, false)
}

func (e *ElasticEngine) DeleteDocuments(ctx context.Context, engineName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(bulkAction{Delete: &bulkMeta{Index: e.IndexName(engineName), ID: id}}); err != nil {
			return err
		}
	}

	return e.bulk(ctx, &buf, true)
}

func (e *ElasticEngine) bulk(ctx context.Context, body io.Reader, ignoreNotFound bool) error {
	opts := []func(*esapi.BulkRequest){e.client.Bulk.WithContext(ctx)}
	if e.refresh != "" {
		opts = append(opts, e.client.Bulk.WithRefresh(e.refresh))
	}

	res, err := e.client.Bulk(body, opts...)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("bulk", res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil
	}

	var failures []string
	for _, item := range parsed.Items {
		for action, result := range item {
			if result.Error == nil {
				continue
			}
			if ignoreNotFound && result.Status == http.StatusNotFound {
				continue
			}
			failures = append(failures, fmt.Sprintf("%s %s: %s (%s)", action, result.ID, result.Error.Reason, result.Error.Type))
		}
	}
	if len(failures) == 0 {
		return nil
	}

	e.logger.Error("Elasticsearch bulk request had failures",
		zap.Int("failed", len(failures)),
		zap.Strings("failures", failures))
	return fmt.Errorf("%w: %s", ErrBulkRejected, strings.Join(failures, "; "))
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value uint64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string             `json:"_id"`
			Score  float64            `json:"_score"`
			Source appsearch.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// sortField maps a field to the one Elasticsearch can sort on: text fields
// are not sortable, so their keyword sub-field is used when mapped
func sortField(field string, properties map[string]interface{}) string {
	property, ok := properties[field].(map[string]interface{})
	if !ok {
		return field
	}
	subFields, ok := property["fields"].(map[string]interface{})
	if !ok {
		return field
	}
	if _, ok := subFields["keyword"]; ok {
		return field + ".keyword"
	}
	return field
}

// SearchBody builds the _search request body for req. properties is the
// index mapping used to pick sort fields and may be nil.
func SearchBody(req appsearch.SearchRequest, properties map[string]interface{}) map[string]interface{} {
	must := []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}
	if req.Query != "" {
		must = []interface{}{map[string]interface{}{
			"query_string": map[string]interface{}{"query": req.Query},
		}}
	}

	filters := make([]interface{}, 0, len(req.Filters))
	for field, value := range req.Filters {
		filters = append(filters, map[string]interface{}{
			"match_phrase": map[string]interface{}{field: value},
		})
	}

	size := req.Size
	if size <= 0 {
		size = 20
	}

	body := map[string]interface{}{
		"from":             max(req.From, 0),
		"size":             size,
		"track_total_hits": true,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filters,
			},
		},
	}

	if len(req.SortBy) > 0 {
		sorts := make([]interface{}, 0, len(req.SortBy))
		for _, field := range req.SortBy {
			order := "asc"
			if strings.HasPrefix(field, "-") {
				order = "desc"
				field = strings.TrimPrefix(field, "-")
			}
			sorts = append(sorts, map[string]interface{}{
				sortField(field, properties): map[string]interface{}{"order": order},
			})
		}
		body["sort"] = sorts
	}
	return body
}

func (e *ElasticEngine) Search(ctx context.Context, engineName string, req appsearch.SearchRequest) (*appsearch.SearchResult, error) {
	payload, err := json.Marshal(SearchBody(req, e.mappings[engineName]))
	if err != nil {
		return nil, err
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.IndexName(engineName)),
		e.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	// An engine nothing was indexed into yet is simply empty
	if res.StatusCode == http.StatusNotFound {
		return &appsearch.SearchResult{Hits: []appsearch.SearchHit{}}, nil
	}
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &appsearch.SearchResult{
		Total: parsed.Hits.Total.Value,
		Hits:  make([]appsearch.SearchHit, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, appsearch.SearchHit{ID: hit.ID, Score: hit.Score, Fields: hit.Source})
	}
	return out, nil
}

type getResponse struct {
	Found  bool               `json:"found"`
	Source appsearch.Document `json:"_source"`
}

func (e *ElasticEngine) GetDocument(ctx context.Context, engineName, id string) (appsearch.Document, error) {
	res, err := e.client.Get(e.IndexName(engineName), id, e.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	defer res.Body.Close()

	// Both a missing document and a missing index answer 404
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", appsearch.ErrDocumentNotFound, id)
	}
	if res.IsError() {
		return nil, responseError("get", res)
	}

	var parsed getResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}
	if !parsed.Found {
		return nil, fmt.Errorf("%w: %s", appsearch.ErrDocumentNotFound, id)
	}
	return parsed.Source, nil
}

func (e *ElasticEngine) DropEngine(ctx context.Context, engineName string) error {
	res, err := e.client.Indices.Delete(
		[]string{e.IndexName(engineName)},
		e.client.Indices.Delete.WithContext(ctx),
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}

	e.mu.Lock()
	delete(e.ready, engineName)
	e.mu.Unlock()

	e.logger.Info("Dropped Elasticsearch index", zap.String("index", e.IndexName(engineName)))
	return nil
}

// Close is a no-op; the HTTP transport has nothing to release
func (e *ElasticEngine) Close() error {
	return nil
}

func responseError(operation string, res *esapi.Response) error {
	body, err := readResponseBody(res)
	if err != nil {
		return fmt.Errorf("%s failed with %s", operation, res.Status())
	}
	return fmt.Errorf("%s failed with %s: %s", operation, res.Status(), body)
}

func readResponseBody(res *esapi.Response) (string, error) {
	if res.Body == nil {
		return "", fmt.Errorf("response body is nil")
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
