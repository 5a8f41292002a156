package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

type LeaveServiceImpl struct {
	leave.SpanRepository
	calculator *BalanceCalculator
	policy     leave.Policy
	clock      clock.Clock
}

// GetBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetBalance(ctx context.Context, req leave.BalanceRequest) (leave.BalanceResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.BalanceResponse{}, err
	}

	year := req.Year
	if year == 0 {
		year = YearFor(l.clock.Now(), l.policy)
	}
	boundary := ResolveYear(year, l.policy)

	spans, err := l.SpanRepository.ListApprovedOverlapping(ctx, req.EmployeeID, boundary.Start, boundary.End)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("failed to list leave spans: %w", err)
	}

	balance := l.calculator.Calculate(spans, boundary, l.policy)

	return leave.BalanceResponse{
		EmployeeID:   req.EmployeeID,
		Year:         balance.Year,
		YearStart:    formatInstant(balance.YearStart),
		YearEnd:      formatInstant(balance.YearEnd),
		CarryForward: l.policy.CarryForward,
		Paid: leave.TypeBalance{
			Allocated: balance.AllocatedPaid.InexactFloat64(),
			Used:      balance.UsedPaid.InexactFloat64(),
			Remaining: balance.RemainingPaid.InexactFloat64(),
		},
		Sick: leave.TypeBalance{
			Allocated: balance.AllocatedSick.InexactFloat64(),
			Used:      balance.UsedSick.InexactFloat64(),
			Remaining: balance.RemainingSick.InexactFloat64(),
		},
		UsedOther:    balance.UsedOther.InexactFloat64(),
		SpansCounted: balance.SpansCounted,
	}, nil
}

// GetPolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) GetPolicy(ctx context.Context) leave.PolicyResponse {
	boundary := ResolveYear(YearFor(l.clock.Now(), l.policy), l.policy)
	return leave.PolicyResponse{
		CarryForward:   l.policy.CarryForward,
		PaidAllocation: l.policy.PaidAllocation.InexactFloat64(),
		SickAllocation: l.policy.SickAllocation.InexactFloat64(),
		YearStartMonth: l.policy.YearStartMonth,
		CurrentYear:    boundary.Year,
		YearStart:      formatInstant(boundary.Start),
		YearEnd:        formatInstant(boundary.End),
	}
}

func formatInstant(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

func NewLeaveService(
	spanRepo leave.SpanRepository,
	policy leave.Policy,
	clk clock.Clock,
) (leave.LeaveService, error) {
	if policy.YearStartMonth < 0 || policy.YearStartMonth > 11 {
		return nil, fmt.Errorf("%w: year start month %d", leave.ErrInvalidPolicy, policy.YearStartMonth)
	}
	if policy.CarryForward {
		return nil, fmt.Errorf("%w: carry forward is not supported", leave.ErrInvalidPolicy)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &LeaveServiceImpl{
		SpanRepository: spanRepo,
		calculator:     NewBalanceCalculator(),
		policy:         policy,
		clock:          clk,
	}, nil
}
