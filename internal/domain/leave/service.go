package leave

import (
	"context"
)

type LeaveService interface {
	// GetBalance computes used and remaining entitlement for a policy year
	GetBalance(ctx context.Context, req BalanceRequest) (BalanceResponse, error)

	// GetPolicy describes the active policy and the current policy year
	GetPolicy(ctx context.Context) PolicyResponse
}
