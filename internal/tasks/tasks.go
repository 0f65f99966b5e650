package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names processed by the worker.
const (
	TypeLoyaltyAccrual  = "loyalty:accrue"
	TypeLoyaltyReversal = "loyalty:reverse"
)

// LoyaltyAccrualPayload carries the points earned by a completed sale.
type LoyaltyAccrualPayload struct {
	SaleID     string `json:"saleId"`
	CustomerID string `json:"customerId"`
	Points     int64  `json:"points"`
}

// LoyaltyReversalPayload undoes the loyalty effects of a cancelled sale:
// earned points are clawed back and redeemed points are restored.
type LoyaltyReversalPayload struct {
	SaleID         string `json:"saleId"`
	CustomerID     string `json:"customerId"`
	PointsEarned   int64  `json:"pointsEarned"`
	PointsRedeemed int64  `json:"pointsRedeemed"`
}

// NewLoyaltyAccrualTask builds the asynq task for point accrual.
func NewLoyaltyAccrualTask(p LoyaltyAccrualPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal accrual payload: %w", err)
	}
	return asynq.NewTask(TypeLoyaltyAccrual, data, asynq.MaxRetry(5)), nil
}

// NewLoyaltyReversalTask builds the asynq task for point reversal.
func NewLoyaltyReversalTask(p LoyaltyReversalPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal reversal payload: %w", err)
	}
	return asynq.NewTask(TypeLoyaltyReversal, data, asynq.MaxRetry(5)), nil
}
