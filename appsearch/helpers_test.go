package appsearch

import (
	"context"
	"sync"
)

type widget struct {
	ID   string
	Name string
}

func (w widget) AppSearchDocumentID() string { return w.ID }

type gadget struct {
	ID string
}

func (g *gadget) AppSearchDocumentID() string { return g.ID }

var widgetSerialiser = SerialiserFunc(func(record Indexable) (Document, error) {
	w := record.(widget)
	return Document{"name": w.Name}, nil
})

func widgetRegistry(t interface{ Fatalf(string, ...interface{}) }) *Registry {
	registry := NewRegistry()
	if err := registry.Register(widget{}, IndexConfig{EngineName: "widgets", Serialiser: widgetSerialiser}); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	return registry
}

type engineCall struct {
	engine string
	docs   []Document
	ids    []string
}

// recordingEngine remembers every call and fails on demand
type recordingEngine struct {
	mu          sync.Mutex
	indexCalls  []engineCall
	deleteCalls []engineCall
	indexErr    error
	deleteErr   error
}

func (e *recordingEngine) IndexDocuments(_ context.Context, engineName string, docs []Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexErr != nil {
		return e.indexErr
	}
	e.indexCalls = append(e.indexCalls, engineCall{engine: engineName, docs: append([]Document(nil), docs...)})
	return nil
}

func (e *recordingEngine) DeleteDocuments(_ context.Context, engineName string, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleteErr != nil {
		return e.deleteErr
	}
	e.deleteCalls = append(e.deleteCalls, engineCall{engine: engineName, ids: append([]string(nil), ids...)})
	return nil
}

func (e *recordingEngine) Search(context.Context, string, SearchRequest) (*SearchResult, error) {
	return &SearchResult{}, nil
}

func (e *recordingEngine) GetDocument(context.Context, string, string) (Document, error) {
	return nil, ErrDocumentNotFound
}

func (e *recordingEngine) DropEngine(context.Context, string) error { return nil }

func (e *recordingEngine) Close() error { return nil }

func (e *recordingEngine) indexedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, call := range e.indexCalls {
		for _, doc := range call.docs {
			ids = append(ids, doc.ID())
		}
	}
	return ids
}

// blockingEngine holds every IndexDocuments call until release is closed
type blockingEngine struct {
	recordingEngine
	started chan struct{}
	release chan struct{}
}

func newBlockingEngine() *blockingEngine {
	return &blockingEngine{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (e *blockingEngine) IndexDocuments(ctx context.Context, engineName string, docs []Document) error {
	select {
	case e.started <- struct{}{}:
	default:
	}
	select {
	case <-e.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return e.recordingEngine.IndexDocuments(ctx, engineName, docs)
}
