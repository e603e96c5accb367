package appsearch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexConfigValidate(t *testing.T) {
	assert.ErrorIs(t, IndexConfig{Serialiser: widgetSerialiser}.Validate(), ErrEmptyEngineName)
	assert.ErrorIs(t, IndexConfig{EngineName: "  ", Serialiser: widgetSerialiser}.Validate(), ErrEmptyEngineName)
	assert.ErrorIs(t, IndexConfig{EngineName: "widgets"}.Validate(), ErrNilSerialiser)
	assert.NoError(t, IndexConfig{EngineName: "widgets", Serialiser: widgetSerialiser}.Validate())
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := widgetRegistry(t)

	cfg, err := registry.ConfigFor(widget{ID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, "widgets", cfg.EngineName)

	// Pointers resolve to the same registration
	cfg, err = registry.ConfigFor(&widget{ID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, "widgets", cfg.EngineName)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := widgetRegistry(t)

	err := registry.Register(&widget{}, IndexConfig{EngineName: "other", Serialiser: widgetSerialiser})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	registry := NewRegistry()

	assert.ErrorIs(t, registry.Register(widget{}, IndexConfig{}), ErrEmptyEngineName)
	assert.ErrorIs(t, registry.Register(nil, IndexConfig{EngineName: "x", Serialiser: widgetSerialiser}), ErrNilRecord)
}

func TestRegistryUnknownModel(t *testing.T) {
	registry := widgetRegistry(t)

	_, err := registry.ConfigFor(&gadget{ID: "g1"})
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistryEngineNames(t *testing.T) {
	registry := widgetRegistry(t)
	require.NoError(t, registry.Register(&gadget{}, IndexConfig{EngineName: "gadgets", Serialiser: widgetSerialiser}))

	assert.Equal(t, []string{"gadgets", "widgets"}, registry.EngineNames())
}

func TestRegistrySerialiseStampsIdentity(t *testing.T) {
	registry := widgetRegistry(t)

	engineName, doc, err := registry.Serialise(widget{ID: "w1", Name: "sprocket"})
	require.NoError(t, err)

	assert.Equal(t, "widgets", engineName)
	assert.Equal(t, "w1", doc.ID())
	assert.Equal(t, "widget", doc[ObjectTypeField])
	assert.Equal(t, "sprocket", doc["name"])
}

func TestRegistrySerialiseKeepsSerialiserIdentity(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(widget{}, IndexConfig{
		EngineName: "widgets",
		Serialiser: SerialiserFunc(func(Indexable) (Document, error) {
			return Document{DocumentIDField: "custom", ObjectTypeField: "thing"}, nil
		}),
	}))

	_, doc, err := registry.Serialise(widget{ID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, "custom", doc.ID())
	assert.Equal(t, "thing", doc[ObjectTypeField])
}

func TestRegistrySerialiseErrors(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry()
	require.NoError(t, registry.Register(widget{}, IndexConfig{
		EngineName: "widgets",
		Serialiser: SerialiserFunc(func(Indexable) (Document, error) { return nil, boom }),
	}))

	_, _, err := registry.Serialise(widget{ID: "w1"})
	assert.ErrorIs(t, err, boom)

	_, _, err = registry.Serialise(widget{})
	assert.ErrorIs(t, err, ErrEmptyDocumentID)
}

func TestObjectType(t *testing.T) {
	assert.Equal(t, "widget", ObjectType(widget{}))
	assert.Equal(t, "gadget", ObjectType(&gadget{}))
}

func TestSerialiseNilPointerRecord(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&gadget{}, IndexConfig{
		EngineName: "gadgets",
		Serialiser: SerialiserFunc(func(Indexable) (Document, error) { return Document{}, nil }),
	}))

	var missing *gadget
	_, _, err := registry.Serialise(missing)
	assert.ErrorIs(t, err, ErrNilRecord)
}
