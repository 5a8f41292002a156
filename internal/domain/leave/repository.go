package leave

import (
	"context"
	"time"
)

// SpanRepository reads leave spans. The leave core never writes them.
type SpanRepository interface {
	// ListApprovedOverlapping returns spans of employeeID that are approved by
	// both HR and the manager and intersect [from, to].
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]Span, error)
}
