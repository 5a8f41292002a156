package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetAttendance = "Attendance"
	SheetSummary    = "Summary"
)

var attendanceHeader = []interface{}{
	"Employee ID", "Employee Name", "Status", "Ongoing", "Punches",
	"First Punch", "Last Punch", "Working Time", "Break Time", "Total Time", "Shift",
}

// DailyAttendanceFilename is the download name for a daily export.
func DailyAttendanceFilename(date string) string {
	return fmt.Sprintf("attendance-%s.xlsx", date)
}

// WriteDailyAttendance renders a daily report as an xlsx workbook with one row
// per employee and a summary sheet.
func WriteDailyAttendance(w io.Writer, report attendance.DailyAttendanceResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAttendance); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetAttendance, "A1", &attendanceHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetAttendance, "A1", "K1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	_ = f.SetColWidth(SheetAttendance, "A", "B", 20)
	_ = f.SetColWidth(SheetAttendance, "E", "E", 40)
	_ = f.SetColWidth(SheetAttendance, "F", "G", 26)

	for i, rec := range report.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rec.EmployeeID,
			deref(rec.EmployeeName),
			rec.Status,
			rec.IsOngoing,
			strings.Join(rec.Punches, ", "),
			deref(rec.FirstPunch),
			deref(rec.LastPunch),
			rec.WorkingTime,
			rec.BreakTime,
			rec.TotalTime,
			deref(rec.ShiftName),
		}
		if err := f.SetSheetRow(SheetAttendance, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Date", report.Date},
		{"Total", report.Summary.Total},
		{"Present", report.Summary.Present},
		{"Half-day", report.Summary.HalfDay},
		{"Absent", report.Summary.Absent},
		{"Ungraded", report.Summary.Ungraded},
		{"Ongoing", report.Summary.Ongoing},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), headerStyle); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
