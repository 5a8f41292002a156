package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type leaveSpanRepository struct {
	db *database.DB
}

// ListApprovedOverlapping implements leave.SpanRepository.
// from and to are compared as calendar dates in their own location.
func (l *leaveSpanRepository) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Span, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT id::text, employee_id, leave_type, start_date, end_date,
			   COALESCE(hr_approval, ''), COALESCE(manager_approval, ''), reason, created_at
		FROM leave_spans
		WHERE employee_id = $1
		  AND start_date <= $3::date
		  AND end_date >= $2::date
		  AND LOWER(TRIM(hr_approval)) = 'approved'
		  AND LOWER(TRIM(manager_approval)) = 'approved'
		ORDER BY start_date, id
	`

	rows, err := q.Query(ctx, query, employeeID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list leave spans: %w", err)
	}
	defer rows.Close()

	spans := make([]leave.Span, 0)
	for rows.Next() {
		var (
			s         leave.Span
			leaveType string
		)
		if err := rows.Scan(
			&s.ID, &s.EmployeeID, &leaveType, &s.StartDate, &s.EndDate,
			&s.HRApproval, &s.ManagerApproval, &s.Reason, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave span: %w", err)
		}
		s.Type = leave.ParseLeaveType(leaveType)
		spans = append(spans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave spans: %w", err)
	}

	return spans, nil
}

func NewLeaveSpanRepository(db *database.DB) leave.SpanRepository {
	return &leaveSpanRepository{
		db: db,
	}
}
