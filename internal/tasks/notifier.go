package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
)

// Enqueuer abstracts the asynq client so the notifier can be tested without Redis.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier translates domain events into background tasks. It implements
// events.Notifier so checkout and sale cancellation enqueue loyalty work
// without knowing about the queue.
type Notifier struct {
	Client Enqueuer
	Log    zerolog.Logger
}

type saleEventPayload struct {
	SaleID         string `json:"saleId"`
	CustomerID     string `json:"customerId"`
	PointsEarned   int64  `json:"pointsEarned"`
	PointsRedeemed int64  `json:"pointsRedeemed"`
}

// Notify enqueues the follow-up task for the event, if any.
func (n *Notifier) Notify(ctx context.Context, event db.DomainEvent) error {
	if n == nil || n.Client == nil {
		return nil
	}
	var p saleEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}
	if p.CustomerID == "" {
		return nil
	}
	var (
		task *asynq.Task
		err  error
	)
	switch event.Topic {
	case events.TopicSaleCompleted:
		if p.PointsEarned <= 0 {
			return nil
		}
		task, err = NewLoyaltyAccrualTask(LoyaltyAccrualPayload{
			SaleID:     p.SaleID,
			CustomerID: p.CustomerID,
			Points:     p.PointsEarned,
		})
	case events.TopicSaleCancelled:
		if p.PointsEarned <= 0 && p.PointsRedeemed <= 0 {
			return nil
		}
		task, err = NewLoyaltyReversalTask(LoyaltyReversalPayload{
			SaleID:         p.SaleID,
			CustomerID:     p.CustomerID,
			PointsEarned:   p.PointsEarned,
			PointsRedeemed: p.PointsRedeemed,
		})
	default:
		return nil
	}
	if err != nil {
		return err
	}
	info, err := n.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	n.Log.Debug().Str("task", task.Type()).Str("id", info.ID).Msg("task enqueued")
	return nil
}
