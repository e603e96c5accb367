package appsearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func widgets(n int) []Indexable {
	records := make([]Indexable, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, widget{ID: fmt.Sprintf("w%d", i), Name: fmt.Sprintf("widget %d", i)})
	}
	return records
}

func TestSynchroniserIndexChunks(t *testing.T) {
	engine := &recordingEngine{}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop(), WithChunkSize(2))

	require.NoError(t, sync.Index(context.Background(), widgets(5)...))

	require.Len(t, engine.indexCalls, 3)
	assert.Len(t, engine.indexCalls[0].docs, 2)
	assert.Len(t, engine.indexCalls[1].docs, 2)
	assert.Len(t, engine.indexCalls[2].docs, 1)
	assert.Equal(t, "widgets", engine.indexCalls[0].engine)
	assert.Equal(t, []string{"w0", "w1", "w2", "w3", "w4"}, engine.indexedIDs())
}

func TestSynchroniserDefaultChunkSize(t *testing.T) {
	engine := &recordingEngine{}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop(), WithChunkSize(0))

	require.NoError(t, sync.Index(context.Background(), widgets(DefaultChunkSize+1)...))
	assert.Len(t, engine.indexCalls, 2)
}

func TestSynchroniserDelete(t *testing.T) {
	engine := &recordingEngine{}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop())

	require.NoError(t, sync.Delete(context.Background(), widgets(3)...))

	require.Len(t, engine.deleteCalls, 1)
	assert.Equal(t, []string{"w0", "w1", "w2"}, engine.deleteCalls[0].ids)
}

func TestSynchroniserDisabled(t *testing.T) {
	engine := &recordingEngine{}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop(), WithIndexingEnabled(false))

	assert.False(t, sync.Enabled())
	require.NoError(t, sync.Index(context.Background(), widgets(3)...))
	require.NoError(t, sync.Delete(context.Background(), widgets(3)...))
	assert.Empty(t, engine.indexCalls)
	assert.Empty(t, engine.deleteCalls)
}

func TestSynchroniserEngineError(t *testing.T) {
	boom := errors.New("engine down")
	engine := &recordingEngine{indexErr: boom, deleteErr: boom}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop())

	err := sync.Index(context.Background(), widgets(1)...)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "widgets")

	assert.ErrorIs(t, sync.Delete(context.Background(), widgets(1)...), boom)
}

func TestSynchroniserUnregisteredRecord(t *testing.T) {
	engine := &recordingEngine{}
	sync := NewSynchroniser(widgetRegistry(t), engine, zap.NewNop())

	assert.ErrorIs(t, sync.Index(context.Background(), &gadget{ID: "g1"}), ErrNotRegistered)
	assert.ErrorIs(t, sync.Delete(context.Background(), &gadget{ID: "g1"}), ErrNotRegistered)
	assert.Empty(t, engine.indexCalls)
}
