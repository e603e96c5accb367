package serialisers

import (
	"testing"
	"time"

	"car-search-backend/appsearch"
	"car-search-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notACar struct{}

func (notACar) AppSearchDocumentID() string { return "other_1" }

func TestCarSerialiserShapesDocument(t *testing.T) {
	id := uuid.MustParse("0b7c8f6e-3f2a-4b57-9f4e-0a0d7d1c2e11")
	built := time.Date(2019, time.March, 4, 12, 0, 0, 0, time.FixedZone("SAST", 2*60*60))
	car := models.Car{ID: id, Make: "Toyota", Model: "Corolla", YearManufactured: built}

	doc, err := CarSerialiser{}.Serialise(car)
	require.NoError(t, err)

	assert.Equal(t, appsearch.Document{
		"id":                "car_" + id.String(),
		"object_type":       "car",
		"make":              "Toyota",
		"model":             "Corolla",
		"year_manufactured": "2019-03-04T10:00:00Z",
	}, doc)
}

func TestCarSerialiserAcceptsPointer(t *testing.T) {
	car := &models.Car{ID: uuid.New(), Make: "Honda", Model: "Civic"}

	doc, err := CarSerialiser{}.Serialise(car)
	require.NoError(t, err)
	assert.Equal(t, car.AppSearchDocumentID(), doc.ID())
	assert.Equal(t, "Civic", doc["model"])
}

func TestCarSerialiserKeepsEmptyValues(t *testing.T) {
	doc, err := CarSerialiser{}.Serialise(models.Car{ID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "", doc["make"])
	assert.Equal(t, "", doc["model"])
	assert.Equal(t, "0001-01-01T00:00:00Z", doc["year_manufactured"])
}

func TestCarSerialiserRejectsOtherRecords(t *testing.T) {
	_, err := CarSerialiser{}.Serialise(notACar{})
	assert.ErrorIs(t, err, ErrUnexpectedRecord)

	var missing *models.Car
	_, err = CarSerialiser{}.Serialise(missing)
	assert.ErrorIs(t, err, appsearch.ErrNilRecord)
}
