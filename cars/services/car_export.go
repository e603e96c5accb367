package services

import (
	"bytes"
	"fmt"
	"time"

	"car-search-backend/db/models"

	"github.com/xuri/excelize/v2"
)

const carExportSheet = "Cars"

// CarExportHeaders are the column titles of a car export, in order
var CarExportHeaders = []string{"ID", "Make", "Model", "Year Manufactured", "Created At"}

// ExportCarsToExcel writes cars into a single sheet workbook and returns its bytes
func ExportCarsToExcel(cars []models.Car) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(carExportSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	for col, header := range CarExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(carExportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("error setting header %s: %w", header, err)
		}
	}

	for i, car := range cars {
		row := []interface{}{
			car.ID.String(),
			car.Make,
			car.Model,
			car.YearManufactured.UTC().Format(time.RFC3339),
			car.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(carExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf, nil
}
