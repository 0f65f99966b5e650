package tasks

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
)

type fakePointsStore struct {
	balance int64
	deltas  []int64
}

func (f *fakePointsStore) AdjustCustomerPoints(_ context.Context, arg db.AdjustCustomerPointsParams) (int64, error) {
	f.deltas = append(f.deltas, arg.Delta)
	f.balance += arg.Delta
	if f.balance < 0 {
		f.balance = 0
	}
	return f.balance, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestHandleLoyaltyAccrual(t *testing.T) {
	store := &fakePointsStore{balance: 100}
	h := &Handler{Q: store}

	task, err := NewLoyaltyAccrualTask(LoyaltyAccrualPayload{
		SaleID:     db.UUIDString(db.NewUUID()),
		CustomerID: db.UUIDString(db.NewUUID()),
		Points:     25,
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleLoyaltyAccrual(context.Background(), task))
	assert.Equal(t, []int64{25}, store.deltas)
	assert.Equal(t, int64(125), store.balance)
}

func TestHandleLoyaltyReversal(t *testing.T) {
	store := &fakePointsStore{balance: 40}
	h := &Handler{Q: store}

	// sale earned 25 and redeemed 500: net restore of 475
	task, err := NewLoyaltyReversalTask(LoyaltyReversalPayload{
		SaleID:         db.UUIDString(db.NewUUID()),
		CustomerID:     db.UUIDString(db.NewUUID()),
		PointsEarned:   25,
		PointsRedeemed: 500,
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleLoyaltyReversal(context.Background(), task))
	assert.Equal(t, []int64{475}, store.deltas)
}

func TestHandleAccrualBadPayloadSkipsRetry(t *testing.T) {
	h := &Handler{Q: &fakePointsStore{}}
	err := h.HandleLoyaltyAccrual(context.Background(), asynq.NewTask(TypeLoyaltyAccrual, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotifierEnqueuesAccrualOnSaleCompleted(t *testing.T) {
	client := &fakeEnqueuer{}
	n := &Notifier{Client: client}

	event := db.DomainEvent{
		ID:      db.NewUUID(),
		Topic:   events.TopicSaleCompleted,
		Payload: []byte(`{"saleId":"s1","customerId":"c1","pointsEarned":12}`),
	}
	require.NoError(t, n.Notify(context.Background(), event))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeLoyaltyAccrual, client.tasks[0].Type())
}

func TestNotifierIgnoresAnonymousSales(t *testing.T) {
	client := &fakeEnqueuer{}
	n := &Notifier{Client: client}

	event := db.DomainEvent{
		ID:      db.NewUUID(),
		Topic:   events.TopicSaleCompleted,
		Payload: []byte(`{"saleId":"s1","pointsEarned":12}`),
	}
	require.NoError(t, n.Notify(context.Background(), event))
	assert.Empty(t, client.tasks)
}

func TestNotifierEnqueuesReversalOnCancellation(t *testing.T) {
	client := &fakeEnqueuer{}
	n := &Notifier{Client: client}

	event := db.DomainEvent{
		ID:      db.NewUUID(),
		Topic:   events.TopicSaleCancelled,
		Payload: []byte(`{"saleId":"s1","customerId":"c1","pointsEarned":5,"pointsRedeemed":200}`),
	}
	require.NoError(t, n.Notify(context.Background(), event))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeLoyaltyReversal, client.tasks[0].Type())
}
