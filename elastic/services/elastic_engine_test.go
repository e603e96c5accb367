package services

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"car-search-backend/appsearch"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
}

// fakeCluster answers the handful of Elasticsearch endpoints the engine uses
type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request, body string)
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.respond(w, r, string(body))
}

func (f *fakeCluster) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestEngine(t *testing.T, respond func(w http.ResponseWriter, r *http.Request, body string), opts ...Option) (*ElasticEngine, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{respond: respond}
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewElasticEngine(client, zap.NewNop(), opts...), cluster
}

func ndjsonLines(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func okBulk(w http.ResponseWriter, _ *http.Request, _ string) {
	io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
}

func TestIndexDocumentsSendsBulkNDJSON(t *testing.T) {
	engine, cluster := newTestEngine(t, okBulk, WithIndexPrefix("test-"))

	err := engine.IndexDocuments(context.Background(), "cars", []appsearch.Document{
		{"id": "car_1", "make": "Toyota"},
		{"id": "car_2", "make": "Honda"},
	})
	require.NoError(t, err)

	req := cluster.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/_bulk", req.path)

	lines := ndjsonLines(t, req.body)
	require.Len(t, lines, 4)
	action := lines[0]["index"].(map[string]interface{})
	assert.Equal(t, "test-cars", action["_index"])
	assert.Equal(t, "car_1", action["_id"])
	assert.Equal(t, "Toyota", lines[1]["make"])
	assert.Equal(t, "car_2", lines[2]["index"].(map[string]interface{})["_id"])
}

func TestIndexDocumentsReportsRejectedItems(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		io.WriteString(w, `{"errors":true,"items":[
			{"index":{"_id":"car_1","status":201}},
			{"index":{"_id":"car_2","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse field"}}}
		]}`)
	})

	err := engine.IndexDocuments(context.Background(), "cars", []appsearch.Document{{"id": "car_1"}, {"id": "car_2"}})
	require.ErrorIs(t, err, ErrBulkRejected)
	assert.Contains(t, err.Error(), "car_2")
	assert.NotContains(t, err.Error(), "car_1:")
}

func TestIndexDocumentsRequiresID(t *testing.T) {
	engine, cluster := newTestEngine(t, okBulk)

	err := engine.IndexDocuments(context.Background(), "cars", []appsearch.Document{{"make": "Toyota"}})
	assert.ErrorIs(t, err, appsearch.ErrEmptyDocumentID)
	assert.Empty(t, cluster.requests)
}

func TestDeleteDocumentsIgnoresMissing(t *testing.T) {
	engine, cluster := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		io.WriteString(w, `{"errors":true,"items":[
			{"delete":{"_id":"car_1","status":200}},
			{"delete":{"_id":"car_9","status":404,"error":{"type":"not_found","reason":"missing"}}}
		]}`)
	})

	require.NoError(t, engine.DeleteDocuments(context.Background(), "cars", []string{"car_1", "car_9"}))

	lines := ndjsonLines(t, cluster.last().body)
	require.Len(t, lines, 2)
	assert.Equal(t, "car_9", lines[1]["delete"].(map[string]interface{})["_id"])
}

func TestSearchParsesHits(t *testing.T) {
	engine, cluster := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		io.WriteString(w, `{"hits":{"total":{"value":2,"relation":"eq"},"hits":[
			{"_id":"car_1","_score":1.5,"_source":{"id":"car_1","make":"Toyota","model":"Corolla"}},
			{"_id":"car_2","_score":0.5,"_source":{"id":"car_2","make":"Toyota","model":"Hilux"}}
		]}}`)
	})

	result, err := engine.Search(context.Background(), "cars", appsearch.SearchRequest{
		Query:   "toyota",
		Filters: map[string]string{"model": "Corolla"},
		Size:    5,
		SortBy:  []string{"-year_manufactured"},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, result.Total)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "car_1", result.Hits[0].ID)
	assert.Equal(t, 1.5, result.Hits[0].Score)
	assert.Equal(t, "Corolla", result.Hits[0].Fields["model"])

	req := cluster.last()
	assert.Equal(t, "/cars/_search", req.path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.body), &body))
	assert.EqualValues(t, 5, body["size"])
	assert.Contains(t, req.body, `"query_string"`)
	assert.Contains(t, req.body, `"match_phrase"`)
	assert.Contains(t, req.body, `"desc"`)
}

func TestSearchMissingIndexIsEmpty(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
	})

	result, err := engine.Search(context.Background(), "cars", appsearch.SearchRequest{})
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Hits)
}

func TestSearchServerError(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"parse_exception"},"status":400}`)
	})

	_, err := engine.Search(context.Background(), "cars", appsearch.SearchRequest{Query: "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse_exception")
}

func TestDropEngineDeletesIndex(t *testing.T) {
	engine, cluster := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		io.WriteString(w, `{"acknowledged":true}`)
	}, WithIndexPrefix("test-"))

	require.NoError(t, engine.DropEngine(context.Background(), "cars"))

	req := cluster.last()
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/test-cars", req.path)
	assert.Contains(t, req.query, "ignore_unavailable=true")
}

func TestSearchBodyDefaults(t *testing.T) {
	body := SearchBody(appsearch.SearchRequest{From: -3}, nil)

	assert.Equal(t, 0, body["from"])
	assert.Equal(t, 20, body["size"])
	_, hasSort := body["sort"]
	assert.False(t, hasSort)

	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"match_all"`)
}

var testCarProperties = map[string]interface{}{
	"make": map[string]interface{}{
		"type":   "text",
		"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword"}},
	},
	"year_manufactured": map[string]interface{}{"type": "date"},
}

// mappedCluster serves a single index that starts out missing
func mappedCluster(exists *atomic.Bool) func(w http.ResponseWriter, r *http.Request, body string) {
	return func(w http.ResponseWriter, r *http.Request, _ string) {
		switch {
		case r.Method == http.MethodHead:
			if !exists.Load() {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut:
			exists.Store(true)
			io.WriteString(w, `{"acknowledged":true}`)
		case r.Method == http.MethodDelete:
			exists.Store(false)
			io.WriteString(w, `{"acknowledged":true}`)
		default:
			okBulk(w, r, "")
		}
	}
}

func (f *fakeCluster) requestsWith(method string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, req := range f.requests {
		if req.method == method {
			out = append(out, req)
		}
	}
	return out
}

func TestIndexDocumentsCreatesMappedIndexOnce(t *testing.T) {
	var exists atomic.Bool
	engine, cluster := newTestEngine(t, mappedCluster(&exists),
		WithIndexPrefix("test-"), WithIndexMapping("cars", testCarProperties))
	ctx := context.Background()
	docs := []appsearch.Document{{"id": "car_1", "make": "Toyota"}}

	require.NoError(t, engine.IndexDocuments(ctx, "cars", docs))
	require.NoError(t, engine.IndexDocuments(ctx, "cars", docs))

	creates := cluster.requestsWith(http.MethodPut)
	require.Len(t, creates, 1)
	assert.Equal(t, "/test-cars", creates[0].path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(creates[0].body), &body))
	properties := body["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "date", properties["year_manufactured"].(map[string]interface{})["type"])
	assert.Len(t, cluster.requestsWith(http.MethodHead), 1)
	assert.Len(t, cluster.requestsWith(http.MethodPost), 2)
}

func TestIndexDocumentsRecreatesMappingAfterDrop(t *testing.T) {
	var exists atomic.Bool
	engine, cluster := newTestEngine(t, mappedCluster(&exists), WithIndexMapping("cars", testCarProperties))
	ctx := context.Background()
	docs := []appsearch.Document{{"id": "car_1", "make": "Toyota"}}

	require.NoError(t, engine.IndexDocuments(ctx, "cars", docs))
	require.NoError(t, engine.DropEngine(ctx, "cars"))
	require.NoError(t, engine.IndexDocuments(ctx, "cars", docs))

	assert.Len(t, cluster.requestsWith(http.MethodPut), 2)
	assert.True(t, exists.Load())
}

func TestIndexDocumentsToleratesConcurrentCreate(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
		default:
			okBulk(w, r, "")
		}
	}, WithIndexMapping("cars", testCarProperties))

	err := engine.IndexDocuments(context.Background(), "cars", []appsearch.Document{{"id": "car_1"}})
	assert.NoError(t, err)
}

func TestSearchSortsTextFieldsOnKeyword(t *testing.T) {
	engine, cluster := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request, _ string) {
		io.WriteString(w, `{"hits":{"total":{"value":0},"hits":[]}}`)
	}, WithIndexMapping("cars", testCarProperties))

	_, err := engine.Search(context.Background(), "cars", appsearch.SearchRequest{
		SortBy: []string{"make", "-year_manufactured"},
	})
	require.NoError(t, err)

	var body struct {
		Sort []map[string]map[string]string `json:"sort"`
	}
	require.NoError(t, json.Unmarshal([]byte(cluster.last().body), &body))
	require.Len(t, body.Sort, 2)
	assert.Equal(t, "asc", body.Sort[0]["make.keyword"]["order"])
	assert.Equal(t, "desc", body.Sort[1]["year_manufactured"]["order"])
}

func TestGetDocument(t *testing.T) {
	engine, cluster := newTestEngine(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		if strings.HasSuffix(r.URL.Path, "/car_1") {
			io.WriteString(w, `{"_index":"test-cars","_id":"car_1","found":true,"_source":{"id":"car_1","make":"Toyota"}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"_index":"test-cars","_id":"car_2","found":false}`)
	}, WithIndexPrefix("test-"))
	ctx := context.Background()

	doc, err := engine.GetDocument(ctx, "cars", "car_1")
	require.NoError(t, err)
	assert.Equal(t, "Toyota", doc["make"])
	assert.Equal(t, "/test-cars/_doc/car_1", cluster.last().path)

	_, err = engine.GetDocument(ctx, "cars", "car_2")
	assert.ErrorIs(t, err, appsearch.ErrDocumentNotFound)
}
