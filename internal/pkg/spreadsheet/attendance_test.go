package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestWriteDailyAttendance(t *testing.T) {
	report := attendance.DailyAttendanceResponse{
		Date: "2025-03-10",
		Summary: attendance.DailySummary{
			Total:   2,
			Present: 1,
			Ongoing: 1,
		},
		Records: []attendance.LiveAttendanceResponse{
			{
				EmployeeID:   "EMP-1",
				EmployeeName: strPtr("Ayu"),
				Status:       attendance.StatusPresent,
				Punches:      []string{"09:00", "13:00", "14:00", "18:00"},
				FirstPunch:   strPtr("2025-03-10T09:00:00+05:30"),
				LastPunch:    strPtr("2025-03-10T18:00:00+05:30"),
				WorkingTime:  "08:00:00",
				BreakTime:    "01:00:00",
				TotalTime:    "09:00:00",
				ShiftName:    strPtr("General"),
			},
			{
				EmployeeID:  "EMP-2",
				IsOngoing:   true,
				Punches:     []string{"09:00"},
				WorkingTime: "02:00:00",
				BreakTime:   "00:00:00",
				TotalTime:   "02:00:00",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDailyAttendance(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAttendance, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetAttendance)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Employee ID", rows[0][0])
	assert.Equal(t, []string{
		"EMP-1", "Ayu", "Present", "FALSE", "09:00, 13:00, 14:00, 18:00",
		"2025-03-10T09:00:00+05:30", "2025-03-10T18:00:00+05:30",
		"08:00:00", "01:00:00", "09:00:00", "General",
	}, rows[1])
	assert.Equal(t, "EMP-2", rows[2][0])
	assert.Equal(t, "TRUE", rows[2][3])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "2025-03-10"}, summary[0])
	assert.Equal(t, []string{"Total", "2"}, summary[1])
	assert.Equal(t, []string{"Ongoing", "1"}, summary[6])
}

func TestWriteDailyAttendance_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDailyAttendance(&buf, attendance.DailyAttendanceResponse{Date: "2025-03-10"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetAttendance)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDailyAttendanceFilename(t *testing.T) {
	assert.Equal(t, "attendance-2025-03-10.xlsx", DailyAttendanceFilename("2025-03-10"))
}
