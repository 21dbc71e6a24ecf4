// Package export renders the wheel list as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/schedule"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the name of the only sheet in the workbook.
const SheetName = "Wheel Rotation"

// Header lists the exported columns in order.
var Header = []string{
	"Serial Number",
	"Part Number",
	"Station",
	"Airline",
	"Arrival Date",
	"Position",
	"Frequency",
	"Last Rotation",
	"Next Rotation Due",
	"Status",
	"Active",
	"Notes",
}

var columnWidths = []float64{20, 18, 12, 12, 14, 10, 12, 20, 20, 14, 8, 40}

const dateLayout = "2006-01-02"

// WheelsXLSX builds a workbook with one row per wheel. Status is computed
// against now with the given due-soon horizon.
func WheelsXLSX(wheels []model.WheelRotation, now time.Time, horizon time.Duration) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, w := range wheels {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			w.WheelSerialNumber,
			w.WheelPartNumber,
			w.Station,
			w.Airline,
			w.ArrivalDate.Format(dateLayout),
			w.CurrentPosition,
			string(w.RotationFrequency),
			formatTime(w.LastRotationDate),
			formatTime(w.NextRotationDue),
			string(schedule.Status(w.NextRotationDue, now, horizon)),
			yesNo(w.IsActive),
			w.Notes,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row for wheel %s: %w", w.ID, err)
		}
	}

	if len(wheels) > 0 {
		if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:%s", last), nil); err != nil {
			return nil, fmt.Errorf("failed to add filter: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
