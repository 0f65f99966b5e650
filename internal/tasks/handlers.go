package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/obs"
)

type pointsStore interface {
	AdjustCustomerPoints(ctx context.Context, arg db.AdjustCustomerPointsParams) (int64, error)
}

// Handler processes loyalty tasks on the worker.
type Handler struct {
	Q   pointsStore
	Bus *events.Bus
	Log zerolog.Logger
}

// Register attaches the handlers to an asynq mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeLoyaltyAccrual, h.HandleLoyaltyAccrual)
	mux.HandleFunc(TypeLoyaltyReversal, h.HandleLoyaltyReversal)
}

// HandleLoyaltyAccrual credits points earned by a completed sale.
func (h *Handler) HandleLoyaltyAccrual(ctx context.Context, task *asynq.Task) error {
	var p LoyaltyAccrualPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode accrual payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Points <= 0 {
		return nil
	}
	balance, err := h.adjust(ctx, p.CustomerID, p.Points)
	if err != nil {
		return err
	}
	if obs.LoyaltyPointsEarnedTotal != nil {
		obs.LoyaltyPointsEarnedTotal.Add(float64(p.Points))
	}
	h.emitAdjusted(ctx, p.CustomerID, p.SaleID, p.Points, balance)
	h.Log.Info().Str("customer", p.CustomerID).Int64("points", p.Points).Int64("balance", balance).Msg("loyalty points accrued")
	return nil
}

// HandleLoyaltyReversal claws back earned points and restores redeemed points
// for a cancelled sale.
func (h *Handler) HandleLoyaltyReversal(ctx context.Context, task *asynq.Task) error {
	var p LoyaltyReversalPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode reversal payload: %v: %w", err, asynq.SkipRetry)
	}
	delta := p.PointsRedeemed - p.PointsEarned
	if delta == 0 {
		return nil
	}
	balance, err := h.adjust(ctx, p.CustomerID, delta)
	if err != nil {
		return err
	}
	h.emitAdjusted(ctx, p.CustomerID, p.SaleID, delta, balance)
	h.Log.Info().Str("customer", p.CustomerID).Int64("delta", delta).Int64("balance", balance).Msg("loyalty points reversed")
	return nil
}

func (h *Handler) adjust(ctx context.Context, customerID string, delta int64) (int64, error) {
	uid, err := db.ToUUID(customerID)
	if err != nil {
		return 0, fmt.Errorf("parse customer id: %v: %w", err, asynq.SkipRetry)
	}
	balance, err := h.Q.AdjustCustomerPoints(ctx, db.AdjustCustomerPointsParams{ID: uid, Delta: delta})
	if err != nil {
		return 0, fmt.Errorf("adjust points: %w", err)
	}
	return balance, nil
}

func (h *Handler) emitAdjusted(ctx context.Context, customerID, saleID string, delta, balance int64) {
	if h.Bus == nil {
		return
	}
	uid, err := db.ToUUID(customerID)
	if err != nil {
		return
	}
	_, _ = h.Bus.Emit(ctx, events.TopicLoyaltyAdjusted, uid, map[string]any{
		"customerId": customerID,
		"saleId":     saleID,
		"delta":      delta,
		"balance":    balance,
	})
}
