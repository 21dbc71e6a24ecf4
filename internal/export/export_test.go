package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/schedule"
)

func TestWheelsXLSX(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rotated := time.Date(2024, 2, 15, 8, 30, 0, 0, time.UTC)
	due := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)

	wheels := []model.WheelRotation{
		{
			ID:                "w-1",
			ArrivalDate:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			Station:           "LHR",
			Airline:           "BA",
			WheelPartNumber:   "3-1547-2",
			WheelSerialNumber: "SN-1",
			CurrentPosition:   90,
			RotationFrequency: schedule.Monthly,
			LastRotationDate:  &rotated,
			NextRotationDue:   &due,
			IsActive:          true,
			Notes:             "nose gear",
		},
		{
			ID:                "w-2",
			ArrivalDate:       time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			Station:           "JFK",
			Airline:           "AA",
			WheelPartNumber:   "PN-2",
			WheelSerialNumber: "SN-2",
			RotationFrequency: schedule.Weekly,
		},
	}

	data, err := WheelsXLSX(wheels, now, 72*time.Hour)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"SN-1", "3-1547-2", "LHR", "BA", "2024-01-31", "90", "monthly",
		"2024-02-15 08:30", "2024-03-02 08:30", "due_soon", "Yes", "nose gear"}, rows[1])

	// excelize trims trailing empty cells.
	assert.Equal(t, "SN-2", rows[2][0])
	assert.Equal(t, "0", rows[2][5])
	assert.Equal(t, "unscheduled", rows[2][9])
	assert.Equal(t, "No", rows[2][10])
}

func TestWheelsXLSX_Empty(t *testing.T) {
	data, err := WheelsXLSX(nil, time.Now(), time.Hour)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}
