package models

import (
	"time"

	"github.com/google/uuid"
)

// Car is a car. It is mirrored into the "cars" search engine; see
// cars/services.CarIndexConfig for the search binding.
type Car struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Make  string    `gorm:"type:text" json:"make"`
	Model string    `gorm:"type:text" json:"model"`
	// YearManufactured holds a full timestamp even though only the year is
	// usually meaningful.
	YearManufactured time.Time `json:"year_manufactured"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AppSearchDocumentID identifies the car in the search engine
func (c Car) AppSearchDocumentID() string {
	return "car_" + c.ID.String()
}
