package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchRecordRepository struct {
	db *database.DB
}

const punchRecordColumns = `
	employee_id, work_date, punches, COALESCE(status, ''),
	shift_name, shift_start, shift_end, employee_name, updated_at
`

func scanPunchRecord(row pgx.Row) (attendance.PunchRecord, error) {
	var r attendance.PunchRecord
	err := row.Scan(
		&r.EmployeeID, &r.Date, &r.Punches, &r.Status,
		&r.ShiftName, &r.ShiftStart, &r.ShiftEnd, &r.EmployeeName, &r.UpdatedAt,
	)
	return r, err
}

// GetByEmployeeAndDate implements attendance.PunchRecordRepository.
func (p *punchRecordRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.PunchRecord, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT ` + punchRecordColumns + `
		FROM punch_records
		WHERE employee_id = $1 AND work_date = $2::date
	`

	record, err := scanPunchRecord(q.QueryRow(ctx, query, employeeID, date.Format(attendance.DateLayout)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.PunchRecord{}, attendance.ErrPunchRecordNotFound
		}
		return attendance.PunchRecord{}, fmt.Errorf("failed to get punch record: %w", err)
	}

	return record, nil
}

// ListByDate implements attendance.PunchRecordRepository.
func (p *punchRecordRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.PunchRecord, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT ` + punchRecordColumns + `
		FROM punch_records
		WHERE work_date = $1::date
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, date.Format(attendance.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list punch records: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.PunchRecord, 0)
	for rows.Next() {
		record, err := scanPunchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch records: %w", err)
	}

	return records, nil
}

func NewPunchRecordRepository(db *database.DB) attendance.PunchRecordRepository {
	return &punchRecordRepository{
		db: db,
	}
}
