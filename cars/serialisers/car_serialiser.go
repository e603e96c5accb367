package serialisers

import (
	"errors"
	"fmt"
	"time"

	"car-search-backend/appsearch"
	"car-search-backend/db/models"
)

var ErrUnexpectedRecord = errors.New("car serialiser: record is not a car")

// CarSerialiser shapes a Car into the "cars" engine document
type CarSerialiser struct{}

var _ appsearch.Serialiser = CarSerialiser{}

func (CarSerialiser) Serialise(record appsearch.Indexable) (appsearch.Document, error) {
	var car models.Car
	switch r := record.(type) {
	case models.Car:
		car = r
	case *models.Car:
		if r == nil {
			return nil, appsearch.ErrNilRecord
		}
		car = *r
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedRecord, record)
	}

	return appsearch.Document{
		appsearch.DocumentIDField: car.AppSearchDocumentID(),
		appsearch.ObjectTypeField: "car",
		"make":                    car.Make,
		"model":                   car.Model,
		"year_manufactured":       car.YearManufactured.UTC().Format(time.RFC3339),
	}, nil
}
