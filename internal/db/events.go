package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// InsertDomainEventParams carries an outbox event row.
type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

const insertDomainEvent = `INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at`

// InsertDomainEvent appends an event to the outbox.
func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	var e DomainEvent
	err := q.db.QueryRow(ctx, insertDomainEvent, arg.Topic, arg.AggregateID, arg.Payload).
		Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt)
	return e, err
}

// InsertAuditLogParams carries an audit trail entry.
type InsertAuditLogParams struct {
	Entity   string
	EntityID pgtype.UUID
	Action   string
	ActorID  pgtype.UUID
	Details  []byte
}

const insertAuditLog = `INSERT INTO audit_log (entity, entity_id, action, actor_id, details)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, entity, entity_id, action, actor_id, details, created_at`

// InsertAuditLog appends an audit entry. The table is append-only.
func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	var a AuditLog
	err := q.db.QueryRow(ctx, insertAuditLog, arg.Entity, arg.EntityID, arg.Action, arg.ActorID, arg.Details).
		Scan(&a.ID, &a.Entity, &a.EntityID, &a.Action, &a.ActorID, &a.Details, &a.CreatedAt)
	return a, err
}

// ListAuditLogsParams filters the audit trail. Entity and action are
// optional; empty strings match every row.
type ListAuditLogsParams struct {
	Entity string
	Action string
	Limit  int32
	Offset int32
}

const listAuditLogs = `SELECT id, entity, entity_id, action, actor_id, details, created_at
FROM audit_log
WHERE ($1 = '' OR entity = $1)
  AND ($2 = '' OR action = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

// ListAuditLogs returns trail entries newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.Entity, arg.Action, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.Entity, &a.EntityID, &a.Action, &a.ActorID, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
