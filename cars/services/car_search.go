package services

import (
	"car-search-backend/appsearch"
	"car-search-backend/cars/serialisers"
	"car-search-backend/db/models"
)

// CarEngineName is the search engine cars are mirrored into
const CarEngineName = "cars"

// CarIndexConfig binds Car to the "cars" engine through CarSerialiser
func CarIndexConfig() appsearch.IndexConfig {
	return appsearch.IndexConfig{
		EngineName: CarEngineName,
		Serialiser: serialisers.CarSerialiser{},
	}
}

// CarElasticsearchProperties maps the car document fields. make and model stay
// full text with a keyword sub-field for sorting and exact filters.
func CarElasticsearchProperties() map[string]interface{} {
	textWithKeyword := func() map[string]interface{} {
		return map[string]interface{}{
			"type": "text",
			"fields": map[string]interface{}{
				"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
			},
		}
	}
	return map[string]interface{}{
		appsearch.DocumentIDField: map[string]interface{}{"type": "keyword"},
		appsearch.ObjectTypeField: map[string]interface{}{"type": "keyword"},
		"make":                    textWithKeyword(),
		"model":                   textWithKeyword(),
		"year_manufactured":       map[string]interface{}{"type": "date"},
	}
}

// RegisterCarSearch registers Car with the search registry
func RegisterCarSearch(registry *appsearch.Registry) error {
	return registry.Register(models.Car{}, CarIndexConfig())
}
